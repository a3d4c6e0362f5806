package llm

const (
	// MinTemperature keeps sampling away from the degenerate zero case,
	// which text-generation servers reject when sampling is enabled.
	MinTemperature = 0.01

	DefaultTopP              = 0.96
	DefaultRepetitionPenalty = 1.0
	DefaultMaxNewTokens      = 1024
	DefaultSeed              = 42
)

// Params is the fixed sampling configuration sent with every request.
type Params struct {
	Temperature       float64 `toml:"temperature"`
	MaxNewTokens      int     `toml:"max_new_tokens"`
	TopP              float64 `toml:"top_p"`
	RepetitionPenalty float64 `toml:"repetition_penalty"`
	Seed              int64   `toml:"seed"`
	DoSample          bool    `toml:"do_sample"`
	// StripMarkup removes markdown emphasis (**) from the generated text.
	StripMarkup bool `toml:"strip_markup"`
}

// DefaultParams returns the baseline sampling configuration.
func DefaultParams() Params {
	return Params{
		Temperature:       0.5,
		MaxNewTokens:      DefaultMaxNewTokens,
		TopP:              DefaultTopP,
		RepetitionPenalty: DefaultRepetitionPenalty,
		Seed:              DefaultSeed,
		DoSample:          true,
	}
}

// Normalize clamps every field into the range the service accepts.
func (p Params) Normalize() Params {
	if p.Temperature < MinTemperature {
		p.Temperature = MinTemperature
	}
	if p.TopP <= 0 {
		p.TopP = DefaultTopP
	}
	if p.TopP > 1 {
		p.TopP = 1
	}
	if p.RepetitionPenalty < 1 {
		p.RepetitionPenalty = 1
	}
	if p.MaxNewTokens < 1 {
		p.MaxNewTokens = DefaultMaxNewTokens
	}
	return p
}
