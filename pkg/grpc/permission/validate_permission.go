package permission

import (
	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
)

type Permission string

const (
	PermissionCreateTenant Permission = "create-tenant"
	PermissionDeleteTenant Permission = "delete-tenant"
	PermissionUpdateTenant Permission = "update-tenant"
	PermissionReadTenant   Permission = "read-tenant"
)

const (
	PermissionCreateDeviceProfile Permission = "create-device-profile"
	PermissionReadDeviceProfile   Permission = "read-device-profile"
	PermissionUpdateDeviceProfile Permission = "update-device-profile"
	PermissionDeleteDeviceProfile Permission = "delete-device-profile"
)

const (
	PermissionCreateDevice     Permission = "create-device"
	PermissionReadDevice       Permission = "read-device"
	PermissionUpdateDevice     Permission = "update-device"
	PermissionDeleteDevice     Permission = "delete-device"
	PermissionReadDeviceEvents Permission = "read-device-events"
	PermissionPublishUplink    Permission = "publish-uplink"
)

const (
	PermissionExecuteCodec      Permission = "execute-codec"
	PermissionSimulateAdr       Permission = "simulate-adr"
	PermissionListAdrAlgorithms Permission = "list-adr-algorithms"
	PermissionListCodecPlugins  Permission = "list-codec-plugins"
)

type PermissionEvaluator interface {
	HasPermission(auth auth.Authentication, perm Permission) bool
	HasObjectPermission(auth auth.Authentication, perm Permission, objectOwner string) bool
	HasTenantPermission(auth auth.Authentication, perm Permission, tenantID uint32) bool
}

func NewPermissionEvaluator() PermissionEvaluator {
	if ret, err := NewOpaPermissionEvaluator(); err != nil {
		log.Default().Error("failed to create permission evaluator", log.ErrorField(err))
		return nil
	} else {
		return ret
	}
}
