package inference

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// predictionSchema is what we require of a provider status response before we
// are willing to decode it. Everything beyond id/status is best-effort.
const predictionSchema = `{
  "type": "object",
  "required": ["id", "status"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "status": {"type": "string", "minLength": 1},
    "output": {},
    "error": {"type": ["string", "null"]}
  }
}`

var compiledPredictionSchema = jsonschema.MustCompileString("prediction.json", predictionSchema)

// ValidatePrediction validates a raw provider response body against the
// prediction schema.
func ValidatePrediction(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if err := compiledPredictionSchema.Validate(v); err != nil {
		return fmt.Errorf("response does not match prediction schema: %w", err)
	}
	return nil
}
