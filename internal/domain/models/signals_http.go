package models

// Requests for the signals HTTP endpoints and the Kafka request topic.

type SignalRequest struct {
	Symbol    string        `json:"symbol" validate:"required,max=32"`
	AssetType string        `json:"asset_type" default:"stock" validate:"omitempty,oneof=stock crypto forex commodity"`
	Candles   []OHLCVRecord `json:"candles" validate:"max=20000"`
	News      []string      `json:"news" validate:"max=200"`
}

type BatchSignalRequest struct {
	Items []SignalRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

type StoredSignalRequest struct {
	Symbol    string `param:"symbol" validate:"required,max=32"`
	AssetType string `query:"asset_type" default:"stock" validate:"oneof=stock crypto forex commodity"`
	N         int    `query:"n" default:"200" validate:"gte=1,lte=5000"`
	TF        string `query:"tf" default:"1m" validate:"oneof=1m 5m 1h 1d"`
	SkipNews  bool   `query:"skip_news"`
}

type CandlesRequest struct {
	Symbol string `param:"symbol" validate:"required,max=32"`
	From   string `query:"from"`
	To     string `query:"to"`
	TF     string `query:"tf" default:"1m" validate:"oneof=1m 5m 1h 1d"`
	Limit  int    `query:"limit" default:"1000" validate:"gte=1,lte=50000"`
}

// SignalInput is one unit of work for the engine.
type SignalInput struct {
	Symbol    string
	AssetType AssetType
	Frame     Frame
	News      []string
}

// ToInput converts a validated request to engine input.
func (r SignalRequest) ToInput() (SignalInput, error) {
	at, err := ParseAssetType(r.AssetType)
	if err != nil {
		return SignalInput{}, err
	}
	return SignalInput{
		Symbol:    r.Symbol,
		AssetType: at,
		Frame:     NewFrame(r.Candles),
		News:      r.News,
	}, nil
}

// SignalResponse wraps the zero-or-one signal list returned by the engine.
type SignalResponse struct {
	Symbol  string          `json:"symbol"`
	Signals []TradingSignal `json:"signals"`
}

// BatchSignals is the consolidated result of a multi-symbol run.
type BatchSignals struct {
	Signals map[string][]TradingSignal `json:"signals"`
	Errors  map[string]string          `json:"errors,omitempty"`
}
