package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// IDList is an ordered list of entity ids stored as a jsonb array.
type IDList []string

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *IDList) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil {
		return err
	}
	if b == nil {
		*l = IDList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("scan id list: %w", err)
	}
	*l = out
	return nil
}

func (l IDList) Clone() IDList {
	if l == nil {
		return nil
	}
	return append(IDList{}, l...)
}

// TimeList is an ordered list of timestamps stored as a jsonb array.
type TimeList []time.Time

func (l TimeList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]time.Time(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *TimeList) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil {
		return err
	}
	if b == nil {
		*l = TimeList{}
		return nil
	}
	var out []time.Time
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("scan time list: %w", err)
	}
	*l = out
	return nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb source %T", src)
	}
}
