package models

// InstrumentType is the asset class of a tradable symbol.
type InstrumentType string

const (
	InstrumentForex         InstrumentType = "forex"
	InstrumentPreciousMetal InstrumentType = "precious_metal"
	InstrumentEnergy        InstrumentType = "energy"
	InstrumentCrypto        InstrumentType = "crypto"
	InstrumentIndex         InstrumentType = "index"
	InstrumentStock         InstrumentType = "stock"
)

// InstrumentSpec describes the price conventions of a symbol.
type InstrumentSpec struct {
	Symbol        string         `json:"symbol"`
	Type          InstrumentType `json:"type"`
	PipSize       float64        `json:"pip_size"`
	StandardLot   float64        `json:"standard_lot"`
	DecimalPlaces int            `json:"decimal_places"`
	Base          string         `json:"base,omitempty"`
	Quote         string         `json:"quote,omitempty"`
}

// Timeframe is a chart resolution.
type Timeframe string

const (
	TFM1  Timeframe = "M1"
	TFM5  Timeframe = "M5"
	TFM15 Timeframe = "M15"
	TFM30 Timeframe = "M30"
	TFH1  Timeframe = "H1"
	TFH4  Timeframe = "H4"
	TFD1  Timeframe = "D1"
	TFW1  Timeframe = "W1"
	TFMN  Timeframe = "MN"
)

// DefaultTimeframe is used when nothing in the message names a resolution.
const DefaultTimeframe = TFH1

// IsValidTimeframe reports whether tf is one of the supported resolutions.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TFM1, TFM5, TFM15, TFM30, TFH1, TFH4, TFD1, TFW1, TFMN:
		return true
	default:
		return false
	}
}
