package permission

import (
	"bytes"
	"context"
	_ "embed"
	"strconv"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/storage/inmem"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
)

type OpaPermissionEvaluator struct {
	query  rego.PreparedEvalQuery
	denied metric.Int64Counter
	l      *log.Logger
}

// EvalRequest is the input document of policy.rego
type EvalRequest struct {
	Roles       []auth.Role            `json:"roles"`
	Scoped      map[auth.Role][]string `json:"scoped,omitempty"`
	Action      Permission             `json:"action"`
	ObjectOwner string                 `json:"objectOwner,omitempty"`
}

var _ PermissionEvaluator = (*OpaPermissionEvaluator)(nil)

//go:embed policy.rego
var policy []byte

//go:embed data.json
var data []byte

func NewOpaPermissionEvaluator() (*OpaPermissionEvaluator, error) {
	l := log.Default().Named("permission").Named("opa")
	query, err := rego.New(
		rego.Query("data.lsm.authz.allow"),
		rego.Module("lsm.authz", string(policy)),
		rego.Store(inmem.NewFromReader(bytes.NewReader(data))),
	).PrepareForEval(context.Background())
	if err != nil {
		l.Error("failed to prepare query", log.ErrorField(err))
		return nil, err
	}
	denied, err := otel.GetMeterProvider().Meter("lsm.permission").Int64Counter(
		"lsm.permission.denied",
		metric.WithDescription("Number of denied permission checks"),
		metric.WithUnit("{count}"))
	if err != nil {
		return nil, err
	}
	return &OpaPermissionEvaluator{query: query, denied: denied, l: l}, nil
}

//nolint:whitespace // editor/linter issue
func (ope *OpaPermissionEvaluator) HasPermission(
	a auth.Authentication,
	perm Permission,
) bool {
	if a == nil {
		return ope.deny(perm)
	}
	return ope.eval(a, EvalRequest{Roles: a.Roles(), Action: perm})
}

//nolint:whitespace // editor/linter issue
func (ope *OpaPermissionEvaluator) HasObjectPermission(
	a auth.Authentication,
	perm Permission,
	objectOwner string,
) bool {
	if a == nil {
		return ope.deny(perm)
	}
	return ope.eval(a, EvalRequest{
		Roles: a.Roles(),
		Scoped: lo.Associate(a.ScopedRoles(),
			func(sr auth.ScopedRole) (auth.Role, []string) {
				return sr.Role, sr.Scopes
			}),
		Action:      perm,
		ObjectOwner: objectOwner,
	})
}

//nolint:whitespace // editor/linter issue
func (ope *OpaPermissionEvaluator) HasTenantPermission(
	a auth.Authentication,
	perm Permission,
	tenantID uint32,
) bool {
	return ope.HasObjectPermission(a, perm, strconv.FormatUint(uint64(tenantID), 10))
}

func (ope *OpaPermissionEvaluator) eval(a auth.Authentication, req EvalRequest) bool {
	rs, err := ope.query.Eval(context.Background(), rego.EvalInput(req))
	if err != nil {
		ope.l.Error("policy evaluation failed", log.ErrorField(err))
		return ope.deny(req.Action)
	}
	allowed := rs.Allowed()
	ope.l.Debug("permission check",
		log.String("name", a.Principal().Name()),
		log.Any("request", req),
		log.Bool("allowed", allowed))
	if !allowed {
		return ope.deny(req.Action)
	}
	return true
}

func (ope *OpaPermissionEvaluator) deny(perm Permission) bool {
	ope.denied.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("action", string(perm))))
	return false
}
