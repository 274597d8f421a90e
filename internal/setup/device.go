package setup

import (
	"fmt"

	"github.com/abcnn-ml/abcnn/internal/backend/cpu"
)

// Backend resolves a configured device name to a compute backend.
// Only "cpu" is available.
func Backend(device string) (*cpu.CPUBackend, error) {
	switch device {
	case "", "cpu":
		return cpu.New(), nil
	default:
		return nil, fmt.Errorf("unsupported device %q: must be \"cpu\"", device)
	}
}
