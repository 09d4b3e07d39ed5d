package out

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	recorddomain "sleepsun/internal/modules/record/domain"
	sunrpc "sleepsun/internal/modules/suntimes/adapter/out/rpc"
	suntimesout "sleepsun/internal/modules/suntimes/port/out"
	apperrors "sleepsun/internal/platform/errors"
)

const defaultStartTimeout = 3 * time.Second

var ErrChecksumMismatch = errors.New("sun source plugin checksum mismatch")

// PluginSource runs an external sun-times provider over go-plugin gRPC. The
// process is started per lookup and killed afterwards.
type PluginSource struct {
	binary       string
	sha256       string
	startTimeout time.Duration
}

// NewPluginSource verifies binary against checksum when checksum is set.
func NewPluginSource(binary, checksum string) suntimesout.RemoteSource {
	return &PluginSource{
		binary:       binary,
		sha256:       strings.ToLower(strings.TrimSpace(checksum)),
		startTimeout: defaultStartTimeout,
	}
}

func (s *PluginSource) Describe(ctx context.Context) (sunrpc.Description, error) {
	client, closeFn, err := s.connect()
	if err != nil {
		return sunrpc.Description{}, err
	}
	defer closeFn()
	desc, err := client.Describe(ctx)
	if err != nil {
		return sunrpc.Description{}, fmt.Errorf("%w: describe: %v", apperrors.ErrRemoteSource, err)
	}
	return *desc, nil
}

func (s *PluginSource) Fetch(ctx context.Context, key recorddomain.SunKey) (recorddomain.SunTimes, error) {
	client, closeFn, err := s.connect()
	if err != nil {
		return recorddomain.SunTimes{}, err
	}
	defer closeFn()

	resp, err := client.FetchSunTimes(ctx, &sunrpc.SunRequest{Date: key.Date, Lat: key.Lat, Lon: key.Lon})
	if err != nil {
		if ctx.Err() != nil {
			return recorddomain.SunTimes{}, ctx.Err()
		}
		return recorddomain.SunTimes{}, fmt.Errorf("%w: fetch sun times: %v", apperrors.ErrRemoteSource, err)
	}
	record := recorddomain.SunTimes{
		Date:      key.Date,
		Lat:       key.Lat,
		Lon:       key.Lon,
		Sunrise:   resp.Sunrise,
		Sunset:    resp.Sunset,
		Daylength: resp.Daylength,
	}
	if record.Daylength == 0 {
		record.Daylength = record.Sunset - record.Sunrise
	}
	if err := record.Validate(); err != nil {
		return recorddomain.SunTimes{}, fmt.Errorf("%w: %v", apperrors.ErrRemoteSource, err)
	}
	return record, nil
}

func (s *PluginSource) connect() (sunrpc.SunSourceClient, func(), error) {
	if err := s.verify(); err != nil {
		return nil, nil, err
	}
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  sunrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          sunrpc.PluginMap(nil),
		Cmd:              exec.Command(s.binary),
		Managed:          true,
		StartTimeout:     s.startTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("%w: start plugin: %v", apperrors.ErrRemoteSource, err)
	}
	raw, err := rpcClient.Dispense(sunrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("%w: dispense plugin: %v", apperrors.ErrRemoteSource, err)
	}
	typed, ok := raw.(sunrpc.SunSourceClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("%w: plugin client type mismatch", apperrors.ErrRemoteSource)
	}
	return typed, closeFn, nil
}

func (s *PluginSource) verify() error {
	if s.sha256 == "" {
		return nil
	}
	payload, err := os.ReadFile(s.binary)
	if err != nil {
		return fmt.Errorf("read plugin binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	if hex.EncodeToString(hash[:]) != s.sha256 {
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, filepath.Base(s.binary))
	}
	return nil
}
