// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

package config

// Merge layers over on top of base and returns a new Config. Set fields in
// over win; zero-value fields fall through to base. Pricing entries are
// concatenated so later layers can override individual models.
func Merge(base, over *Config) *Config {
	result := *base
	if over == nil {
		return &result
	}

	if over.Provider != "" {
		result.Provider = over.Provider
	}
	if over.Model != "" {
		result.Model = over.Model
	}
	if over.APIKey != "" {
		result.APIKey = over.APIKey
	}
	if over.BaseURL != "" {
		result.BaseURL = over.BaseURL
	}
	if over.Temperature != nil {
		t := *over.Temperature
		result.Temperature = &t
	}
	if over.MaxTokens != 0 {
		result.MaxTokens = over.MaxTokens
	}
	if over.RequestTimeout != "" {
		result.RequestTimeout = over.RequestTimeout
	}
	if over.MaxQuestionLength != 0 {
		result.MaxQuestionLength = over.MaxQuestionLength
	}
	if over.MetricsDir != "" {
		result.MetricsDir = over.MetricsDir
	}
	if over.PromptFile != "" {
		result.PromptFile = over.PromptFile
	}
	if over.LogFormat != "" {
		result.LogFormat = over.LogFormat
	}

	if over.Moderation.Enabled != nil {
		e := *over.Moderation.Enabled
		result.Moderation.Enabled = &e
	}
	if over.Moderation.Model != "" {
		result.Moderation.Model = over.Moderation.Model
	}
	if len(over.Moderation.ExtraPatterns) > 0 {
		result.Moderation.ExtraPatterns = append(
			append([]string(nil), base.Moderation.ExtraPatterns...),
			over.Moderation.ExtraPatterns...)
	}

	if len(over.Pricing) > 0 {
		result.Pricing = append(append(result.Pricing[:0:0], base.Pricing...), over.Pricing...)
	}

	return &result
}

// Resolve loads the global file and the local file (or explicitPath when
// non-empty) and layers them over Defaults. Flag overrides are applied by the
// caller with Merge.
func Resolve(dir, explicitPath string) (*Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return nil, err
	}

	var local *Config
	if explicitPath != "" {
		local, err = Load(explicitPath)
	} else {
		local, _, err = LoadLocal(dir)
	}
	if err != nil {
		return nil, err
	}

	return Merge(Merge(Defaults(), global), local), nil
}
