package inference

// Prediction is the provider's view of one captioning job.
// Output is left untyped because the provider returns a string, an array of
// strings, or an object depending on the model version.
type Prediction struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output any    `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

type createRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	Image  string `json:"image"`
	Prompt string `json:"prompt,omitempty"`
}
