package models

import (
	"testing"
	"time"
)

func TestCropDecorate(t *testing.T) {
	c := Crop{Length: 10, Width: 2.5}
	c.Decorate()
	if c.CalculatedSize != 25 {
		t.Fatalf("expected 25, got %v", c.CalculatedSize)
	}
	if c.PlotSize != "25 m² (10m x 2.5m)" {
		t.Fatalf("unexpected plot size %q", c.PlotSize)
	}
}

func TestNewPlotOption(t *testing.T) {
	planted := time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)
	opt := NewPlotOption(Crop{ID: 4, PlotID: "P-01", Status: CropStatusGrowing, Length: 3, Width: 1.5, PlantingDate: planted})
	if opt.DisplayName != "P-01 - Timun (4.5m²)" {
		t.Fatalf("unexpected display name %q", opt.DisplayName)
	}
	if opt.StatusInfo != "Sedang Tumbuh - Ditanam: 9/5/2024" {
		t.Fatalf("unexpected status info %q", opt.StatusInfo)
	}
}
