package store

import (
	"fmt"
	"time"

	"github.com/doubtdesk/doubtdesk/internal/model"
)

// BuildReport assembles a full snapshot of the installation: stats, all
// accounts, and every doubt with its responses.
func (s *Store) BuildReport() (*model.Report, error) {
	instanceID, err := s.InstanceID()
	if err != nil {
		return nil, fmt.Errorf("instance id: %w", err)
	}
	stats, err := s.AdminStats()
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	teachers, err := s.ListTeachers()
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	students, err := s.ListStudents()
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	doubts, err := s.ListDoubts(0, "")
	if err != nil {
		return nil, fmt.Errorf("list doubts: %w", err)
	}

	var threads []model.DoubtDetail
	for _, d := range doubts {
		responses, err := s.ListResponses(d.ID)
		if err != nil {
			return nil, fmt.Errorf("responses for doubt %d: %w", d.ID, err)
		}
		threads = append(threads, model.DoubtDetail{Doubt: d, Responses: responses})
	}

	return &model.Report{
		InstanceID:  instanceID,
		GeneratedAt: time.Now(),
		Stats:       stats,
		Teachers:    teachers,
		Students:    students,
		Doubts:      threads,
	}, nil
}
