package models

// Supported chat models. The set is closed: a request naming anything
// else is rejected before any receipt work happens.
const (
	StandardModel = "gpt-4o-mini"
	ProModel      = "gpt-4o"
)

// App Store subscription products, one per model tier.
const (
	StandardProduct = "com.omegaai.sub.standard"
	ProProduct      = "com.omegaai.sub.pro"
)

var modelProducts = map[string]string{
	StandardModel: StandardProduct,
	ProModel:      ProProduct,
}

// SupportedModel reports whether model is part of the closed model set.
func SupportedModel(model string) bool {
	_, ok := modelProducts[model]
	return ok
}

// ProductForModel returns the subscription product that grants access to model.
func ProductForModel(model string) (string, bool) {
	product, ok := modelProducts[model]
	return product, ok
}

// SupportedModels lists the closed model set.
func SupportedModels() []string {
	return []string{StandardModel, ProModel}
}

type ChatRequest struct {
	Receipt string `json:"receipt"`
	Prompt  string `json:"prompt"`
	Model   string `json:"model"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
