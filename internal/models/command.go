package models

import "time"

// Command domains and services used by the card.
const (
	DomainClimate         = "climate"
	ServiceSetTemperature = "set_temperature"
)

// CommandRecord describes one outbound service call. Build it with
// NewCommandRecord so the payload is never shared with the caller.
type CommandRecord struct {
	Domain       string         `json:"domain"`
	Service      string         `json:"service"`
	TargetEntity string         `json:"entity_id,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
}

// NewCommandRecord copies payload into a fresh record.
func NewCommandRecord(domain, service, entityID string, payload map[string]any) CommandRecord {
	cp := make(map[string]any, len(payload))
	for k, v := range payload {
		cp[k] = v
	}
	return CommandRecord{Domain: domain, Service: service, TargetEntity: entityID, Payload: cp}
}

// ServiceData flattens the record into the body the host expects:
// {entity_id, ...payload}. A payload entity_id wins over TargetEntity.
func (r CommandRecord) ServiceData() map[string]any {
	out := make(map[string]any, len(r.Payload)+1)
	if r.TargetEntity != "" {
		out["entity_id"] = r.TargetEntity
	}
	for k, v := range r.Payload {
		out[k] = v
	}
	return out
}

// Command delivery statuses stored in the audit log.
const (
	CommandSent     = "SENT"
	CommandFailed   = "FAILED"
	CommandRecorded = "RECORDED" // no host transport configured
)

// CommandEntry is one audited outbound command.
type CommandEntry struct {
	ID       string         `json:"id"`
	IssuedAt time.Time      `json:"issued_at"`
	Domain   string         `json:"domain"`
	Service  string         `json:"service"`
	EntityID string         `json:"entity_id,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
}
