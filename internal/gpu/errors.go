package gpu

import (
	"codeberg.org/veridian/veridianctl/internal/errors"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

const (
	ErrInitFailed      = errors.ErrorCode("gpu_init_failed")
	ErrShutdownFailed  = errors.ErrorCode("gpu_shutdown_failed")
	ErrDeviceNotFound  = errors.ErrorCode("gpu_device_not_found")
	ErrFanCountFailed  = errors.ErrorCode("gpu_fan_count_failed")
	ErrFanSpeedFailed  = errors.ErrorCode("gpu_fan_speed_failed")
	ErrFanLimitsFailed = errors.ErrorCode("gpu_fan_limits_failed")
	ErrAutoFanFailed   = errors.ErrorCode("gpu_auto_fan_failed")
)

// nvmlError adapts an NVML return code to the error interface
type nvmlError struct {
	ret nvml.Return
}

func (e *nvmlError) Error() string {
	return nvml.ErrorString(e.ret)
}

func newNVMLError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}

	return &nvmlError{ret: ret}
}

func isSuccess(ret nvml.Return) bool {
	return ret == nvml.SUCCESS
}
