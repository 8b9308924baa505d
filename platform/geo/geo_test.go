package geo

import "testing"

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
	}{
		{
			name: "same point",
			lat1: -1.2921, lng1: 36.8219,
			lat2: -1.2921, lng2: 36.8219,
			want: 0.0,
		},
		{
			name: "nairobi to nakuru",
			lat1: -1.2921, lng1: 36.8219,
			lat2: -0.3031, lng2: 36.0800,
			want: 137.5,
		},
		{
			name: "nairobi to mombasa",
			lat1: -1.2921, lng1: 36.8219,
			lat2: -4.0435, lng2: 39.6682,
			want: 439.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if got != tt.want {
				t.Errorf("DistanceKm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistanceKmSymmetry(t *testing.T) {
	ab := DistanceKm(-1.2921, 36.8219, -0.3031, 36.0800)
	ba := DistanceKm(-0.3031, 36.0800, -1.2921, 36.8219)
	if ab != ba {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestDistanceBetween(t *testing.T) {
	nairobi := &Coordinates{Lat: -1.2921, Lng: 36.8219}
	nakuru := &Coordinates{Lat: -0.3031, Lng: 36.0800}

	if got := DistanceBetween(nil, nakuru); got != 0.0 {
		t.Errorf("DistanceBetween(nil, b) = %v, want 0.0", got)
	}
	if got := DistanceBetween(nairobi, nil); got != 0.0 {
		t.Errorf("DistanceBetween(a, nil) = %v, want 0.0", got)
	}
	if got := DistanceBetween(nairobi, nakuru); got != 137.5 {
		t.Errorf("DistanceBetween() = %v, want 137.5", got)
	}
}
