package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"anubis-watch/internal/domain"
	"anubis-watch/internal/observability"
)

// wireMessage is the JSON envelope shared by launch and outcome
// messages. Type discriminates; unknown fields are ignored so the feed
// schema can grow without breaking consumers.
type wireMessage struct {
	Type string `json:"type"`

	// Launch fields.
	Mint             string  `json:"mint"`
	Creator          string  `json:"creator"`
	Platform         string  `json:"platform"`
	LaunchTime       string  `json:"launch_time"` // RFC 3339
	InitialLiquidity float64 `json:"initial_liquidity"`
	Signature        string  `json:"signature"`
	Bundled          bool    `json:"bundled"`

	// Outcome fields.
	PeakMarketCap  float64 `json:"peak_market_cap"`
	TimeToPeakMin  float64 `json:"time_to_peak_minutes"`
	Graduated      bool    `json:"graduated"`
	BondingMinutes float64 `json:"bonding_minutes"`
	Rugged         bool    `json:"rugged"`
	MetadataScore  float64 `json:"metadata_score"`
}

const (
	msgTypeLaunch  = "launch"
	msgTypeOutcome = "outcome"
)

// Decode parses one wire message into an Event. Messages that fail to
// parse or carry implausible addresses are rejected with an error; the
// caller decides whether to drop or halt.
func Decode(raw []byte) (Event, error) {
	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		observability.RecordFeedDecodeError("unknown")
		return Event{}, fmt.Errorf("decoding feed message: %w", err)
	}

	switch msg.Type {
	case msgTypeLaunch:
		ev, err := decodeLaunch(&msg)
		if err != nil {
			observability.RecordFeedDecodeError(msgTypeLaunch)
			return Event{}, err
		}
		observability.RecordFeedMessage(msgTypeLaunch)
		return Event{Launch: ev}, nil

	case msgTypeOutcome:
		out, err := decodeOutcome(&msg)
		if err != nil {
			observability.RecordFeedDecodeError(msgTypeOutcome)
			return Event{}, err
		}
		observability.RecordFeedMessage(msgTypeOutcome)
		return Event{Outcome: out}, nil

	default:
		observability.RecordFeedDecodeError("unknown")
		return Event{}, fmt.Errorf("unknown feed message type %q", msg.Type)
	}
}

func decodeLaunch(msg *wireMessage) (*domain.LaunchEvent, error) {
	if !ValidMint(msg.Mint) {
		return nil, fmt.Errorf("launch %s: invalid mint address", msg.Mint)
	}
	if !ValidWallet(msg.Creator) {
		return nil, fmt.Errorf("launch %s: invalid creator wallet %s", msg.Mint, msg.Creator)
	}

	launchTime, err := time.Parse(time.RFC3339, msg.LaunchTime)
	if err != nil {
		return nil, fmt.Errorf("launch %s: parsing launch_time: %w", msg.Mint, err)
	}

	ev := &domain.LaunchEvent{
		Mint:              msg.Mint,
		CreatorWallet:     msg.Creator,
		Platform:          domain.Platform(msg.Platform),
		LaunchTime:        launchTime.UTC(),
		InitialLiquidity:  msg.InitialLiquidity,
		Signature:         msg.Signature,
		BundledSubmission: msg.Bundled,
	}
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", msg.Mint, err)
	}
	return ev, nil
}

func decodeOutcome(msg *wireMessage) (*domain.TokenOutcome, error) {
	if !ValidMint(msg.Mint) {
		return nil, fmt.Errorf("outcome %s: invalid mint address", msg.Mint)
	}

	out := &domain.TokenOutcome{
		Mint:          msg.Mint,
		PeakMarketCap: msg.PeakMarketCap,
		TimeToPeak:    time.Duration(msg.TimeToPeakMin * float64(time.Minute)),
		Graduated:     msg.Graduated,
		BondingTime:   time.Duration(msg.BondingMinutes * float64(time.Minute)),
		Rugged:        msg.Rugged,
		MetadataScore: msg.MetadataScore,
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("outcome %s: %w", msg.Mint, err)
	}
	return out, nil
}
