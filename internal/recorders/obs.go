package recorders

import (
	"context"
	"encoding/json"
	"log/slog"

	"wax/internal/logging"
	"wax/internal/obsws"
	"wax/internal/recording"
	"wax/internal/services"
)

// OBSName selects the OBS screen recorder.
const OBSName = "obs"

// OBSConn is the part of an obs-websocket session the recorder uses.
type OBSConn interface {
	Request(ctx context.Context, requestType string, data any) (json.RawMessage, error)
	Close() error
}

// OBSDialer opens an identified obs-websocket session.
type OBSDialer func(ctx context.Context, url, password string) (OBSConn, error)

// DialOBS connects with package obsws.
func DialOBS(ctx context.Context, url, password string) (OBSConn, error) {
	return obsws.Dial(ctx, url, password)
}

// OBSRecorder toggles OBS recording over obs-websocket. It starts before any
// recorder with a calibration display so the marker lands in the footage.
type OBSRecorder struct {
	recording.Base

	URL      string
	Password string
	Dial     OBSDialer
	Logger   *slog.Logger

	conn OBSConn
}

func (o *OBSRecorder) Name() string { return OBSName }

type recordStatus struct {
	OutputActive bool `json:"outputActive"`
	OutputPaused bool `json:"outputPaused"`
}

func (o *OBSRecorder) status(ctx context.Context, conn OBSConn) (recordStatus, error) {
	var status recordStatus
	data, err := conn.Request(ctx, "GetRecordStatus", nil)
	if err != nil {
		return status, err
	}
	err = json.Unmarshal(data, &status)
	return status, err
}

func (o *OBSRecorder) dial(ctx context.Context) (OBSConn, error) {
	dial := o.Dial
	if dial == nil {
		dial = DialOBS
	}
	return dial(ctx, o.URL, o.Password)
}

// CheckCanStart requires OBS to be reachable and idle.
func (o *OBSRecorder) CheckCanStart(ctx context.Context) error {
	conn, err := o.dial(ctx)
	if err != nil {
		return services.Precondition(OBSName, "Please launch OBS and enable its websocket server ("+o.URL+")")
	}
	defer conn.Close()
	status, err := o.status(ctx, conn)
	if err != nil {
		return services.Precondition(OBSName, "OBS did not report its recording status: "+err.Error())
	}
	if status.OutputActive {
		return services.Precondition(OBSName, "OBS is already recording")
	}
	return nil
}

func (o *OBSRecorder) Start(ctx context.Context, _ *recording.Context) (map[string]any, error) {
	conn, err := o.dial(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrStartFailed, OBSName, "connect", "Failed to connect to OBS", err)
	}
	if _, err := conn.Request(ctx, "StartRecord", nil); err != nil {
		conn.Close()
		return nil, services.Wrap(services.ErrStartFailed, OBSName, "StartRecord", "OBS refused to start recording", err)
	}
	o.conn = conn
	return nil, nil
}

// CheckCanStop requires the connection from Start to still be recording.
func (o *OBSRecorder) CheckCanStop(ctx context.Context) error {
	if o.conn == nil {
		return services.Precondition(OBSName, "OBS recorder was not started")
	}
	status, err := o.status(ctx, o.conn)
	if err != nil {
		return services.Precondition(OBSName, "OBS did not report its recording status: "+err.Error())
	}
	if !status.OutputActive {
		return services.Precondition(OBSName, "OBS is not recording")
	}
	return nil
}

func (o *OBSRecorder) Stop(ctx context.Context) error {
	if o.conn == nil {
		return nil
	}
	conn := o.conn
	o.conn = nil
	defer conn.Close()

	data, err := conn.Request(ctx, "StopRecord", nil)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, OBSName, "StopRecord", "OBS refused to stop recording", err)
	}
	var result struct {
		OutputPath string `json:"outputPath"`
	}
	if json.Unmarshal(data, &result) == nil && result.OutputPath != "" {
		logging.NewComponentLogger(o.Logger, "obs_recorder").Info("obs recording saved",
			logging.String("output_path", result.OutputPath),
			logging.String(logging.FieldEventType, "obs_recording_saved"),
		)
	}
	return nil
}
