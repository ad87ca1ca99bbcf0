package models

import (
	"fmt"
	"strconv"
	"time"

	"farm_ops_backend/pkg/utils"
)

// DefaultCropType is the only crop grown on the farm.
const DefaultCropType = "Timun"

// Crop lifecycle statuses used by the assignable listings.
const (
	CropStatusPlanted    = "Ditanam"
	CropStatusGrowing    = "Sedang Tumbuh"
	CropStatusReady      = "Siap Dituai"
	CropStatusActive     = "Aktif"
	CropStatusHarvesting = "Penuaian"
	CropStatusDone       = "Selesai"
)

// AssignableCropStatuses are the statuses a crop must have to receive new tasks.
var AssignableCropStatuses = []string{CropStatusPlanted, CropStatusGrowing, CropStatusReady}

// AssignablePlotStatuses widen AssignableCropStatuses for the plot picker.
var AssignablePlotStatuses = []string{
	CropStatusPlanted, CropStatusGrowing, CropStatusReady,
	CropStatusActive, CropStatusHarvesting, CropStatusDone,
}

// Crop is a planted plot.
type Crop struct {
	ID                  int64      `json:"id" db:"id"`
	PlotID              string     `json:"plotId" db:"plot_id"`
	Length              float64    `json:"length" db:"length"`
	Width               float64    `json:"width" db:"width"`
	ExpectedHarvestDate *time.Time `json:"expectedHarvestDate" db:"expected_harvest_date"`
	CropType            string     `json:"cropType" db:"crop_type"`
	Status              string     `json:"status" db:"status"`
	PlantingDate        time.Time  `json:"plantingDate" db:"planting_date"`
	ExpectedYield       *float64   `json:"expectedYield" db:"expected_yield"`
	ActualYield         *float64   `json:"actualYield" db:"actual_yield"`
	Notes               *string    `json:"notes" db:"notes"`
	UserID              *int64     `json:"userId" db:"user_id"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time  `json:"updatedAt" db:"updated_at"`

	AssignedUsername *string `json:"assignedUsername,omitempty"`
	CalculatedSize   float64 `json:"calculatedSize"`
	PlotSize         string  `json:"plotSize"`
}

// Decorate fills the derived size fields from length and width.
func (c *Crop) Decorate() {
	c.CalculatedSize = Round2Size(c.Length, c.Width)
	c.PlotSize = FormatPlotSize(c.CalculatedSize, c.Length, c.Width)
}

// FormatPlotSize renders "<size> m² (<l>m x <w>m)".
func FormatPlotSize(size, length, width float64) string {
	return fmt.Sprintf("%s m² (%sm x %sm)", formatNumber(size), formatNumber(length), formatNumber(width))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PlotOption is the compact crop projection used by pickers.
type PlotOption struct {
	ID           int64     `json:"id"`
	PlotID       string    `json:"plotId"`
	CropType     string    `json:"cropType"`
	Status       string    `json:"status"`
	PlantingDate time.Time `json:"plantingDate"`
	Size         float64   `json:"size"`
	AssignedTo   *string   `json:"assignedTo"`
	DisplayName  string    `json:"displayName"`
	StatusInfo   string    `json:"statusInfo"`
}

// NewPlotOption derives the picker view of c.
func NewPlotOption(c Crop) PlotOption {
	size := Round2Size(c.Length, c.Width)
	cropType := c.CropType
	if cropType == "" {
		cropType = DefaultCropType
	}
	return PlotOption{
		ID:           c.ID,
		PlotID:       c.PlotID,
		CropType:     cropType,
		Status:       c.Status,
		PlantingDate: c.PlantingDate,
		Size:         size,
		AssignedTo:   c.AssignedUsername,
		DisplayName:  fmt.Sprintf("%s - %s (%sm²)", c.PlotID, cropType, formatNumber(size)),
		StatusInfo:   fmt.Sprintf("%s - Ditanam: %s", c.Status, c.PlantingDate.Format("2/1/2006")),
	}
}

// Round2Size is the plot area rounded to two decimals.
func Round2Size(length, width float64) float64 {
	return utils.Round2(length * width)
}
