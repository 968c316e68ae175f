package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Action is a discrete recommendation; each indicator vote uses the same set.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// AssetType is the instrument category. It does not change the fusion policy.
type AssetType string

const (
	AssetStock     AssetType = "stock"
	AssetCrypto    AssetType = "crypto"
	AssetForex     AssetType = "forex"
	AssetCommodity AssetType = "commodity"
)

// ParseAssetType maps "" to stock and rejects unknown values.
func ParseAssetType(s string) (AssetType, error) {
	switch AssetType(strings.ToLower(strings.TrimSpace(s))) {
	case "", AssetStock:
		return AssetStock, nil
	case AssetCrypto:
		return AssetCrypto, nil
	case AssetForex:
		return AssetForex, nil
	case AssetCommodity:
		return AssetCommodity, nil
	default:
		return "", fmt.Errorf("unknown asset type %q", s)
	}
}

// TechnicalVotes holds one vote per indicator family.
type TechnicalVotes struct {
	RSI       Action `json:"rsi_signal"`
	MACD      Action `json:"macd_signal"`
	Trend     Action `json:"trend_signal"`
	Bollinger Action `json:"bollinger_signal"`
}

// HoldVotes is the vote set used when there is not enough history.
func HoldVotes() TechnicalVotes {
	return TechnicalVotes{RSI: ActionHold, MACD: ActionHold, Trend: ActionHold, Bollinger: ActionHold}
}

// All returns the votes in rendering order.
func (v TechnicalVotes) All() []Action {
	return []Action{v.RSI, v.MACD, v.Trend, v.Bollinger}
}

func (v TechnicalVotes) String() string {
	return fmt.Sprintf("{rsi_signal: %s, macd_signal: %s, trend_signal: %s, bollinger_signal: %s}",
		v.RSI, v.MACD, v.Trend, v.Bollinger)
}

// TradingSignal is the engine output. It cannot be modified after NewTradingSignal.
type TradingSignal struct {
	symbol      string
	assetType   AssetType
	action      Action
	confidence  float64
	priceTarget float64
	stopLoss    float64
	timestamp   time.Time
	rationale   string
}

type TradingSignalParams struct {
	Symbol      string
	AssetType   AssetType
	Action      Action
	Confidence  float64
	PriceTarget float64
	StopLoss    float64
	Timestamp   time.Time
	Rationale   string
}

func NewTradingSignal(p TradingSignalParams) TradingSignal {
	return TradingSignal{
		symbol:      p.Symbol,
		assetType:   p.AssetType,
		action:      p.Action,
		confidence:  p.Confidence,
		priceTarget: p.PriceTarget,
		stopLoss:    p.StopLoss,
		timestamp:   p.Timestamp,
		rationale:   p.Rationale,
	}
}

func (s TradingSignal) Symbol() string       { return s.symbol }
func (s TradingSignal) AssetType() AssetType { return s.assetType }
func (s TradingSignal) Action() Action       { return s.action }
func (s TradingSignal) Confidence() float64  { return s.confidence }
func (s TradingSignal) PriceTarget() float64 { return s.priceTarget }
func (s TradingSignal) StopLoss() float64    { return s.stopLoss }
func (s TradingSignal) Timestamp() time.Time { return s.timestamp }
func (s TradingSignal) Rationale() string    { return s.rationale }

type tradingSignalJSON struct {
	Symbol      string    `json:"symbol"`
	AssetType   AssetType `json:"asset_type"`
	Action      Action    `json:"action"`
	Confidence  float64   `json:"confidence"`
	PriceTarget float64   `json:"price_target"`
	StopLoss    float64   `json:"stop_loss"`
	Timestamp   time.Time `json:"timestamp"`
	Rationale   string    `json:"rationale"`
}

func (s TradingSignal) MarshalJSON() ([]byte, error) {
	return json.Marshal(tradingSignalJSON{
		Symbol:      s.symbol,
		AssetType:   s.assetType,
		Action:      s.action,
		Confidence:  s.confidence,
		PriceTarget: s.priceTarget,
		StopLoss:    s.stopLoss,
		Timestamp:   s.timestamp,
		Rationale:   s.rationale,
	})
}

// UnmarshalJSON lets consumers of the signals topic decode records.
func (s *TradingSignal) UnmarshalJSON(b []byte) error {
	var v tradingSignalJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = NewTradingSignal(TradingSignalParams(v))
	return nil
}
