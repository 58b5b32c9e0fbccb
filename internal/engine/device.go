// Package engine implements the generative model collaborator: loading a
// variant on the process device and invoking it, either by shelling out to
// the inference binary or by calling a standalone inference sidecar.
package engine

import (
	"os/exec"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-gateway/internal/core"
)

// DetectDevice resolves the compute device once at process start. An explicit
// override wins; otherwise the GPU is used when the NVIDIA management tool is
// on the PATH, with a CPU fallback.
func DetectDevice(override string, log *logger.Logger) core.Device {
	switch override {
	case string(core.DeviceCPU):
		return core.DeviceCPU
	case string(core.DeviceGPU):
		return core.DeviceGPU
	}

	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		log.Info("Using device: gpu")

		return core.DeviceGPU
	}

	log.Info("Using device: cpu")

	return core.DeviceCPU
}
