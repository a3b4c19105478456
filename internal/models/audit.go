package models

import (
	"encoding/json"
	"time"
)

// AuditAction constants represent actions to be logged.
const (
	AuditActionRequestSubmit     = "REQUEST_SUBMIT"
	AuditActionRequestApprove    = "REQUEST_APPROVE"
	AuditActionRequestReject     = "REQUEST_REJECT"
	AuditActionOverrideUpsert    = "OVERRIDE_UPSERT"
	AuditActionOverrideDelete    = "OVERRIDE_DELETE"
	AuditActionAdjustmentCreate  = "ADJUSTMENT_CREATE"
	AuditActionAdjustmentDisable = "ADJUSTMENT_DEACTIVATE"
	AuditActionPeriodUpsert      = "PERIOD_UPSERT"
	AuditActionRecordsIngest     = "RECORDS_INGEST"
	AuditActionConfigUpdate      = "CONFIG_UPDATE"
	AuditActionReconcileRepair   = "RECONCILE_REPAIR"
	AuditActionExport            = "EXPORT_DOWNLOAD"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MarshalJSON emits the stored value snapshots as raw JSON.
func (l AuditLog) MarshalJSON() ([]byte, error) {
	type plain AuditLog
	return json.Marshal(struct {
		plain
		OldValues json.RawMessage `json:"old_values,omitempty"`
		NewValues json.RawMessage `json:"new_values,omitempty"`
	}{plain: plain(l), OldValues: l.OldValues, NewValues: l.NewValues})
}
