package employees

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SearchLimit caps quick-search results.
const SearchLimit = 50

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// NormalizeStatus returns the canonical status name, defaulting to Active.
func NormalizeStatus(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StatusActive, nil
	}
	for _, s := range Statuses {
		if strings.EqualFold(s, raw) {
			return s, nil
		}
	}
	return "", ErrInvalidStatus
}

func normalize(input Input) (Input, error) {
	status, err := NormalizeStatus(input.Status)
	if err != nil {
		return Input{}, err
	}
	return Input{
		EmployeeCode: strings.TrimSpace(input.EmployeeCode),
		Name:         strings.TrimSpace(input.Name),
		Department:   strings.TrimSpace(input.Department),
		Factory:      strings.TrimSpace(input.Factory),
		Designation:  strings.TrimSpace(input.Designation),
		Email:        strings.TrimSpace(input.Email),
		Status:       status,
	}, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Employee, int, error) {
	return s.store.List(ctx, filter, limit, offset)
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	return s.store.Get(ctx, id)
}

// ByCode looks up a live employee by employee code.
func (s *Service) ByCode(ctx context.Context, code string) (Employee, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Employee{}, ErrNotFound
	}
	return s.store.ByCode(ctx, code)
}

func (s *Service) Create(ctx context.Context, input Input) (Employee, error) {
	input, err := normalize(input)
	if err != nil {
		return Employee{}, err
	}
	emp, err := s.store.Create(ctx, input)
	if err != nil {
		return Employee{}, fmt.Errorf("create employee: %w", err)
	}
	slog.Info("employee created", "employeeId", emp.ID)
	return emp, nil
}

func (s *Service) Update(ctx context.Context, id string, input Input) (Employee, error) {
	input, err := normalize(input)
	if err != nil {
		return Employee{}, err
	}
	emp, err := s.store.Update(ctx, id, input)
	if err != nil {
		return Employee{}, fmt.Errorf("update employee: %w", err)
	}
	return emp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.SoftDelete(ctx, id)
}

func (s *Service) Search(ctx context.Context, query string) ([]Employee, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Employee{}, nil
	}
	return s.store.Search(ctx, query, SearchLimit)
}

func (s *Service) Stats(ctx context.Context, id string) (Stats, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return Stats{}, err
	}
	return s.store.Stats(ctx, id)
}

func (s *Service) History(ctx context.Context, id string, filter HistoryFilter, limit, offset int) ([]HistoryItem, int, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, 0, err
	}
	return s.store.History(ctx, id, filter, limit, offset)
}

func (s *Service) Factories(ctx context.Context) ([]string, error) {
	return s.store.Factories(ctx)
}
