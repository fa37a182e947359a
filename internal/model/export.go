package model

import "time"

// Report is the top-level JSON structure for data export.
type Report struct {
	InstanceID  string        `json:"instance_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Stats       AdminStats    `json:"stats"`
	Teachers    []Teacher     `json:"teachers"`
	Students    []Student     `json:"students"`
	Doubts      []DoubtDetail `json:"doubts"`
}
