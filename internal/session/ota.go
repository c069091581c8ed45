package session

import (
	"fmt"

	"github.com/vireolabs/cloudlink/internal/ota"
	"github.com/vireolabs/cloudlink/internal/property"
)

// OTA property names, fixed by the cloud-side contract.
const (
	PropOTACapable = "OTA_CAP"
	PropOTAError   = "OTA_ERROR"
	PropOTASHA256  = "OTA_SHA256"
	PropOTAURL     = "OTA_URL"
	PropOTARequest = "OTA_REQ"
)

// otaProperties holds the registered OTA property handles.
type otaProperties struct {
	capable *property.Property
	errCode *property.Property
	sha256  *property.Property
	url     *property.Property
	request *property.Property
}

// registerOTAProperties adds the OTA side-channel properties to the
// container. OTA_URL and OTA_REQ are cloud-writable with device-wins
// conflict resolution: a request in flight on the device must not be
// resurrected by a stale shadow value after a reconnect.
func (s *Session) registerOTAProperties() error {
	p := &otaProperties{}
	var err error

	if p.capable, err = s.container.Add(PropOTACapable, s.cfg.OTACapable); err != nil {
		return err
	}
	if p.errCode, err = s.container.Add(PropOTAError, int64(ota.ErrorCodeNone)); err != nil {
		return err
	}
	if p.sha256, err = s.container.Add(PropOTASHA256, s.cfg.FirmwareSHA256); err != nil {
		return err
	}
	if p.url, err = s.container.Add(PropOTAURL, "",
		property.WithPermission(property.ReadWrite),
		property.WithPolicy(property.DeviceWins)); err != nil {
		return err
	}
	if p.request, err = s.container.Add(PropOTARequest, false,
		property.WithPermission(property.ReadWrite),
		property.WithPolicy(property.DeviceWins)); err != nil {
		return err
	}

	s.otaProps = p
	return nil
}

// runOTAHook services a pending firmware update request. It runs each
// connected tick, after the ordinary property sync, and never touches
// connection state itself: a download failure is recorded in OTA_ERROR
// and delivered on the next sync pass.
func (s *Session) runOTAHook() {
	p := s.otaProps
	if p == nil || !p.request.Bool() {
		return
	}

	url := p.url.String()
	s.logger.Info("ota requested", "url", url)

	// Clear the previous error code and push the cleared value out on
	// its own before the download starts.
	s.setOTAError(ota.ErrorCodeNone)
	s.publishProperties(false)

	// One-shot trigger: consume the request before invoking the
	// mechanism so a crash mid-download cannot loop the hook.
	if err := p.request.Set(false); err != nil {
		s.logger.Error("clearing ota request failed", "error", err)
	}

	if s.downloader == nil {
		s.logger.Error("ota requested but no downloader configured")
		s.setOTAError(ota.ErrorCodeNoDownloader)
		return
	}

	if err := s.downloader.Download(s.ctx, url); err != nil {
		s.logger.Error("ota download failed", "url", url, "error", err)
		s.setOTAError(ota.ErrorCodeDownloadFailed)
		return
	}

	s.logger.Info("ota download complete", "url", url)
}

// setOTAError records a code into the OTA_ERROR property.
func (s *Session) setOTAError(code ota.ErrorCode) {
	if err := s.otaProps.errCode.Set(int64(code)); err != nil {
		s.logger.Error("setting ota error failed",
			"error", fmt.Errorf("code %s: %w", code, err))
	}
}
