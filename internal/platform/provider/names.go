package provider

// Canonical provider names. These are the values accepted by the
// provider.name configuration key and reported by Provider.Name().
const (
	NameGemini    = "gemini"
	NameOpenAI    = "openai"
	NameDeepSeek  = "deepseek"
	NameAnthropic = "anthropic"
)

// Names lists every provider this build can construct, in display order.
func Names() []string {
	return []string{NameGemini, NameOpenAI, NameDeepSeek, NameAnthropic}
}
