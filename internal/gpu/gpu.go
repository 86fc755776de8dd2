package gpu

import (
	"sync"

	"codeberg.org/veridian/veridianctl/internal/errors"
	"codeberg.org/veridian/veridianctl/internal/logger"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// Limits holds the device-reported fan speed bounds.
type Limits struct {
	Min, Max int
}

// Device is the NVML-backed collaborator for the control loop. It
// implements both the TemperatureSource and SpeedActuator sides.
type Device struct {
	device   nvml.Device
	index    int
	fanCount int
	limits   Limits
	mu       sync.Mutex
}

// New initializes NVML and binds the GPU at the given index.
func New(index int) (*Device, error) {
	errFactory := errors.New()

	if ret := nvml.Init(); !isSuccess(ret) {
		return nil, errFactory.Wrap(ErrInitFailed, newNVMLError(ret))
	}

	device, ret := nvml.DeviceGetHandleByIndex(index)
	if !isSuccess(ret) {
		nvml.Shutdown()
		return nil, errFactory.Wrap(ErrDeviceNotFound, newNVMLError(ret))
	}

	d := &Device{device: device, index: index}
	if err := d.initialize(); err != nil {
		nvml.Shutdown()
		return nil, err
	}

	return d, nil
}

func (d *Device) initialize() error {
	errFactory := errors.New()

	if name, ret := d.device.GetName(); isSuccess(ret) {
		logger.Info().Int("index", d.index).Str("name", name).Msg("Detected GPU")
	} else {
		logger.Warn().Msgf("Failed to get GPU name: %v", nvml.ErrorString(ret))
	}

	count, ret := d.device.GetNumFans()
	if !isSuccess(ret) {
		return errFactory.Wrap(ErrFanCountFailed, newNVMLError(ret))
	}
	d.fanCount = count
	logger.Debug().Int("fans", d.fanCount).Msg("Detected fans")

	minSpeed, maxSpeed, ret := d.device.GetMinMaxFanSpeed()
	if !isSuccess(ret) {
		return errFactory.Wrap(ErrFanLimitsFailed, newNVMLError(ret))
	}
	d.limits = Limits{Min: minSpeed, Max: maxSpeed}
	logger.Debug().Int("min", d.limits.Min).Int("max", d.limits.Max).Msg("Fan speed limits")

	return nil
}

// Shutdown releases the NVML handle.
func (d *Device) Shutdown() error {
	if ret := nvml.Shutdown(); !isSuccess(ret) {
		return errors.New().Wrap(ErrShutdownFailed, newNVMLError(ret))
	}

	return nil
}

// Temperature reads the current GPU core temperature in Celsius.
// Failures are reported as sensor_unavailable; the loop skips the tick
// and retries on the next poll.
func (d *Device) Temperature() (int, error) {
	temp, ret := d.device.GetTemperature(nvml.TEMPERATURE_GPU)
	if !isSuccess(ret) {
		return 0, errors.New().Wrap(errors.ErrSensorUnavailable, newNVMLError(ret))
	}

	return int(temp), nil
}

// CurrentFanSpeed reads the speed of the first fan, used to seed the
// controller's convergence state at startup.
func (d *Device) CurrentFanSpeed() (int, error) {
	speed, ret := d.device.GetFanSpeed_v2(0)
	if !isSuccess(ret) {
		return 0, errors.New().Wrap(ErrFanSpeedFailed, newNVMLError(ret))
	}

	return int(speed), nil
}

// SetSpeed commands every fan on the device to the given percentage.
// Failures are reported as actuation_failed; the loop logs and retries.
func (d *Device) SetSpeed(percent int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < d.fanCount; i++ {
		if ret := nvml.DeviceSetFanSpeed_v2(d.device, i, percent); !isSuccess(ret) {
			return errors.New().Wrap(errors.ErrActuationFailed, newNVMLError(ret))
		}
	}
	logger.Debug().Int("speed", percent).Msg("Set fan speed")

	return nil
}

// EnableAutoFanControl returns every fan to firmware control. Called
// on shutdown so the GPU is never left pinned at the last commanded
// speed.
func (d *Device) EnableAutoFanControl() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < d.fanCount; i++ {
		if ret := nvml.DeviceSetDefaultFanSpeed_v2(d.device, i); !isSuccess(ret) {
			return errors.New().Wrap(ErrAutoFanFailed, newNVMLError(ret))
		}
	}
	logger.Debug().Msg("Auto fan control: enabled")

	return nil
}

// FanSpeedLimits returns the device-reported fan speed bounds.
func (d *Device) FanSpeedLimits() Limits {
	return d.limits
}
