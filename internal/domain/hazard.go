package domain

import "strings"

// DroughtCategory is the severity class derived from an SPI value.
type DroughtCategory string

const (
	DroughtLow     DroughtCategory = "Low"
	DroughtMedium  DroughtCategory = "Medium"
	DroughtHigh    DroughtCategory = "High"
	DroughtExtreme DroughtCategory = "Extreme"
)

// Severe reports whether the category is High or Extreme.
func (c DroughtCategory) Severe() bool {
	return c == DroughtHigh || c == DroughtExtreme
}

// CategorizeSPI maps a Standardized Precipitation Index value to a category.
//
//	SPI >= -0.5  Low
//	SPI >= -1.0  Medium
//	SPI >= -1.5  High
//	otherwise    Extreme
func CategorizeSPI(spi float64) DroughtCategory {
	switch {
	case spi >= -0.5:
		return DroughtLow
	case spi >= -1.0:
		return DroughtMedium
	case spi >= -1.5:
		return DroughtHigh
	default:
		return DroughtExtreme
	}
}

// SPIWindow names the trailing period an SPI value covers.
type SPIWindow string

const (
	SPI6Month SPIWindow = "last6month"
	SPI3Month SPIWindow = "last3month"
	SPI1Month SPIWindow = "last1month"
)

// SPIPriority is the order in which SPI windows are consulted.
var SPIPriority = []SPIWindow{SPI6Month, SPI3Month, SPI1Month}

// Provenance labels for hazard lookups.
const (
	SourceDroughtIndex     = "SPI drought index"
	SourceBasinDataset     = "Watershed dataset"
	SourceUnavailable      = "Dataset unavailable"
	SourceNoIndexValue     = "No index value at nearest point"
	SourceNoContainingArea = "No containing basin"
)

// DroughtAssessment is the drought lookup result for one coordinate.
// When Available is false the Category is Low for display only and must not
// influence a decision.
type DroughtAssessment struct {
	Available  bool            `json:"data_available"`
	SPI        *float64        `json:"spi,omitempty"`
	Window     SPIWindow       `json:"spi_window,omitempty"`
	Category   DroughtCategory `json:"category"`
	PointLabel string          `json:"point_label,omitempty"`
	Source     string          `json:"source"`
}

// UnavailableDrought returns an assessment flagged as having no data.
func UnavailableDrought(source string) DroughtAssessment {
	return DroughtAssessment{Category: DroughtLow, Source: source}
}

// ForcesWaterSaving reports whether the drought signal alone triggers water saving.
func (d DroughtAssessment) ForcesWaterSaving() bool {
	return d.Available && d.Category.Severe()
}

// StressLevel is a normalized basin water stress label.
type StressLevel string

const (
	StressLow     StressLevel = "Low"
	StressMedium  StressLevel = "Medium"
	StressHigh    StressLevel = "High"
	StressUnknown StressLevel = "unknown"
)

// NormalizeStress maps a raw basin stress label onto a StressLevel. Labels
// are matched case-insensitively in English and Turkish (the national basin
// layers use düşük/orta/yüksek). Unrecognized labels pass through unchanged.
func NormalizeStress(raw string) StressLevel {
	label := strings.TrimSpace(raw)
	switch strings.ToLower(label) {
	case "":
		return StressUnknown
	case "low", "düşük", "dusuk":
		return StressLow
	case "medium", "moderate", "orta":
		return StressMedium
	case "high", "yüksek", "yuksek":
		return StressHigh
	default:
		return StressLevel(label)
	}
}

// BasinAssessment is the watershed lookup result for one coordinate.
type BasinAssessment struct {
	Available bool        `json:"data_available"`
	Name      string      `json:"basin_name,omitempty"`
	ID        string      `json:"basin_id,omitempty"`
	Stress    StressLevel `json:"stress,omitempty"`
	Source    string      `json:"source"`
}

// UnavailableBasin returns an assessment flagged as having no data.
func UnavailableBasin(source string) BasinAssessment {
	return BasinAssessment{Stress: StressUnknown, Source: source}
}

// Stressed reports whether the matched basin is under high water stress.
func (b BasinAssessment) Stressed() bool {
	return b.Available && b.Stress == StressHigh
}
