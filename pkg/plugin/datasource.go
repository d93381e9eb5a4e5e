// Package plugin serves SPARQL datasources to a Grafana host.
package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"evalgo.org/sparqlds/internal/client"
	"evalgo.org/sparqlds/internal/domain"
	"evalgo.org/sparqlds/internal/query"
	"evalgo.org/sparqlds/internal/settings"
	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/instancemgmt"
	"github.com/grafana/grafana-plugin-sdk-go/data"
	"github.com/sirupsen/logrus"
)

// PluginID is the plugin id registered with the host.
const PluginID = "evalgo-sparql-datasource"

var (
	_ backend.QueryDataHandler      = (*Datasource)(nil)
	_ backend.CheckHealthHandler    = (*Datasource)(nil)
	_ instancemgmt.InstanceDisposer = (*Datasource)(nil)
)

// Datasource is one configured SPARQL datasource instance.
type Datasource struct {
	name     string
	settings settings.Settings
	clients  *client.Manager
	executor *query.Executor
	log      *logrus.Entry
}

// Factory returns an instance factory for datasource.Manage. Extra options
// are passed to every instance's executor.
func Factory(log *logrus.Entry, opts ...query.Option) func(context.Context, backend.DataSourceInstanceSettings) (instancemgmt.Instance, error) {
	return func(ctx context.Context, s backend.DataSourceInstanceSettings) (instancemgmt.Instance, error) {
		ds, err := NewDatasource(ctx, s, log, opts...)
		if err != nil {
			return nil, err
		}
		return ds, nil
	}
}

// NewDatasource creates a datasource from the host's instance settings. The
// endpoint URL comes from jsonData, falling back to the instance URL.
func NewDatasource(_ context.Context, s backend.DataSourceInstanceSettings, log *logrus.Entry, opts ...query.Option) (*Datasource, error) {
	cfg, err := settings.Load(s.JSONData, s.DecryptedSecureJSONData)
	if err != nil {
		return nil, err
	}
	if cfg.URL == "" && s.URL != "" {
		cfg = cfg.WithURL(s.URL)
	}

	dsLog := log.WithFields(logrus.Fields{"datasource": s.Name, "uid": s.UID})
	clients := client.NewManager(dsLog)
	return &Datasource{
		name:     s.Name,
		settings: cfg,
		clients:  clients,
		executor: query.NewExecutor(clients, dsLog, opts...),
		log:      dsLog,
	}, nil
}

// Dispose drops the cached endpoint clients when the host replaces the
// instance after a settings change.
func (d *Datasource) Dispose() {
	d.clients.ClearCache()
}

// QueryData runs each query and keys the responses by RefID.
func (d *Datasource) QueryData(ctx context.Context, req *backend.QueryDataRequest) (*backend.QueryDataResponse, error) {
	response := backend.NewQueryDataResponse()
	for _, q := range req.Queries {
		response.Responses[q.RefID] = d.query(ctx, q)
	}
	return response, nil
}

type queryModel struct {
	RDFQuery string       `json:"rdfQuery"`
	Format   string       `json:"format"`
	Hide     bool         `json:"hide"`
	Scope    domain.Scope `json:"scopedVars"`
}

func (d *Datasource) query(ctx context.Context, q backend.DataQuery) backend.DataResponse {
	var qm queryModel
	if err := json.Unmarshal(q.JSON, &qm); err != nil {
		return backend.ErrDataResponse(backend.StatusBadRequest, fmt.Sprintf("json unmarshal: %v", err))
	}
	if qm.Hide {
		return backend.DataResponse{}
	}

	table, err := d.executor.Execute(ctx, query.Target{Name: d.name, Settings: d.settings}, domain.DataQuery{
		RefID:    q.RefID,
		RDFQuery: qm.RDFQuery,
		Format:   qm.Format,
	}, qm.Scope)
	if err != nil {
		return errorResponse(err)
	}

	return backend.DataResponse{Frames: data.Frames{Frame(table)}}
}

func errorResponse(err error) backend.DataResponse {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return backend.ErrDataResponse(backend.StatusBadRequest, verr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return backend.ErrDataResponse(backend.StatusTimeout, err.Error())
	}
	var oerr *domain.OperationError
	if errors.As(err, &oerr) {
		return backend.ErrDataResponse(backend.StatusBadGateway, err.Error())
	}
	return backend.ErrDataResponse(backend.StatusInternal, err.Error())
}

// Frame converts a result table into a data frame, one nullable field per
// column.
func Frame(t *query.Table) *data.Frame {
	frame := data.NewFrame("response")
	frame.RefID = t.RefID
	frame.Meta = &data.FrameMeta{PreferredVisualization: data.VisTypeTable}

	for i, col := range t.Columns {
		frame.Fields = append(frame.Fields, data.NewField(col.Name, nil, columnValues(t.Rows, i, col.Kind)))
	}
	return frame
}

func columnValues(rows [][]interface{}, i int, kind query.ColumnKind) interface{} {
	switch kind {
	case query.KindNumber:
		values := make([]*float64, len(rows))
		for r, row := range rows {
			if v, ok := row[i].(float64); ok {
				values[r] = &v
			}
		}
		return values
	case query.KindBoolean:
		values := make([]*bool, len(rows))
		for r, row := range rows {
			if v, ok := row[i].(bool); ok {
				values[r] = &v
			}
		}
		return values
	case query.KindTime:
		values := make([]*time.Time, len(rows))
		for r, row := range rows {
			if v, ok := row[i].(time.Time); ok {
				values[r] = &v
			}
		}
		return values
	}
	values := make([]*string, len(rows))
	for r, row := range rows {
		if v, ok := row[i].(string); ok {
			values[r] = &v
		}
	}
	return values
}

// CheckHealth backs the host's "Save & test" button.
func (d *Datasource) CheckHealth(ctx context.Context, _ *backend.CheckHealthRequest) (*backend.CheckHealthResult, error) {
	health := d.executor.CheckHealth(ctx, d.settings)

	status := backend.HealthStatusUnknown
	switch health.Status {
	case query.HealthOK:
		status = backend.HealthStatusOk
	case query.HealthError:
		status = backend.HealthStatusError
	}
	return &backend.CheckHealthResult{Status: status, Message: health.Message}, nil
}
