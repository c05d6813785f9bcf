package fare

import (
	"testing"

	"github.com/roadlink/booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceForSeat(t *testing.T) {
	tests := []struct {
		name           string
		base           int64
		class          models.SeatClass
		windowExtra    int64
		middleDiscount int64
		want           int64
		wantErr        bool
	}{
		{"window adds surcharge", 100, models.SeatClassWindow, 20, 10, 120, false},
		{"middle subtracts discount", 100, models.SeatClassMiddle, 20, 10, 90, false},
		{"aisle is base price", 100, models.SeatClassAisle, 20, 10, 100, false},
		{"middle discount floors at zero", 50, models.SeatClassMiddle, 0, 80, 0, false},
		{"zero base window", 0, models.SeatClassWindow, 15, 0, 15, false},
		{"driver seats are never priced", 100, models.SeatClassDriver, 20, 10, 0, true},
		{"negative base rejected", -1, models.SeatClassAisle, 0, 0, 0, true},
		{"negative window extra rejected", 100, models.SeatClassWindow, -5, 0, 0, true},
		{"negative middle discount rejected", 100, models.SeatClassMiddle, 0, -5, 0, true},
		{"unknown class rejected", 100, models.SeatClass("recliner"), 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PriceForSeat(tt.base, tt.class, tt.windowExtra, tt.middleDiscount)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidFareInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTotalForSelection(t *testing.T) {
	seats := []models.TripSeat{
		{SeatNumber: "A1", SeatPrice: 120},
		{SeatNumber: "A2", SeatPrice: 90},
		{SeatNumber: "A3", SeatPrice: 100},
	}
	assert.Equal(t, int64(310), TotalForSelection(seats))
	assert.Equal(t, int64(0), TotalForSelection(nil))
}

func TestAdvanceForTotal(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		pct     int
		want    int64
		wantErr bool
	}{
		{"rounds half up", 1499, 20, 300, false}, // 299.8 -> 300
		{"exact fifth", 1500, 20, 300, false},
		{"full advance", 100, 100, 100, false},
		{"exact half rounds up", 50, 50, 25, false},
		{"1% of 49 rounds down", 49, 1, 0, false}, // 0.49 -> 0
		{"1% of 50 rounds up", 50, 1, 1, false},   // 0.50 -> 1
		{"zero percentage", 1000, 0, 0, false},
		{"negative total rejected", -1, 20, 0, true},
		{"percentage above 100 rejected", 100, 101, 0, true},
		{"negative percentage rejected", 100, -1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AdvanceForTotal(tt.total, tt.pct)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidFareInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
