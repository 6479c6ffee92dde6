package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/provlab/traceline/internal/domain/provenance"
	"github.com/provlab/traceline/internal/signature"
)

// NodeModel represents the database row for the nodes table.
type NodeModel struct {
	ID          int64
	Owner       string
	File        []byte
	ActiveSteps int
	Operators   string // JSON array of principals
}

// ItemModel represents the database row for the items table.
type ItemModel struct {
	ID       int64
	Origin   int64
	File     []byte
	LastStep *int64 // nullable, NULL while the item has no steps
}

// StepModel represents the database row for the steps table.
type StepModel struct {
	ID         int64
	Node       int64
	Item       int64
	File       []byte
	Precedents string // JSON array of step ids
	Approved   string // JSON array of node ids
}

func toNodeModel(rec provenance.NodeRecord) (NodeModel, error) {
	ops, err := json.Marshal(rec.Operators)
	if err != nil {
		return NodeModel{}, fmt.Errorf("encode operators for node %d: %w", rec.ID, err)
	}
	file := rec.File.Encode()
	return NodeModel{
		ID:          int64(rec.ID),
		Owner:       string(rec.Owner),
		File:        file[:],
		ActiveSteps: rec.ActiveSteps,
		Operators:   string(ops),
	}, nil
}

func (m NodeModel) toRecord() (provenance.NodeRecord, error) {
	file, err := signature.Decode(m.File)
	if err != nil {
		return provenance.NodeRecord{}, fmt.Errorf("decode file signature for node %d: %w", m.ID, err)
	}
	var ops []provenance.Principal
	if err := json.Unmarshal([]byte(m.Operators), &ops); err != nil {
		return provenance.NodeRecord{}, fmt.Errorf("decode operators for node %d: %w", m.ID, err)
	}
	return provenance.NodeRecord{
		ID:          provenance.NodeID(m.ID),
		Owner:       provenance.Principal(m.Owner),
		File:        file,
		ActiveSteps: m.ActiveSteps,
		Operators:   ops,
	}, nil
}

func toItemModel(rec provenance.ItemRecord) ItemModel {
	file := rec.File.Encode()
	m := ItemModel{
		ID:     int64(rec.ID),
		Origin: int64(rec.Origin),
		File:   file[:],
	}
	if rec.LastStep != 0 {
		last := int64(rec.LastStep)
		m.LastStep = &last
	}
	return m
}

func (m ItemModel) toRecord() (provenance.ItemRecord, error) {
	file, err := signature.Decode(m.File)
	if err != nil {
		return provenance.ItemRecord{}, fmt.Errorf("decode file signature for item %d: %w", m.ID, err)
	}
	rec := provenance.ItemRecord{
		ID:     provenance.ItemID(m.ID),
		Origin: provenance.NodeID(m.Origin),
		File:   file,
	}
	if m.LastStep != nil {
		rec.LastStep = provenance.StepID(*m.LastStep)
	}
	return rec, nil
}

func toStepModel(rec provenance.StepRecord) (StepModel, error) {
	precedents, err := json.Marshal(rec.Precedents)
	if err != nil {
		return StepModel{}, fmt.Errorf("encode precedents for step %d: %w", rec.ID, err)
	}
	approved, err := json.Marshal(rec.Approved)
	if err != nil {
		return StepModel{}, fmt.Errorf("encode approvals for step %d: %w", rec.ID, err)
	}
	file := rec.File.Encode()
	return StepModel{
		ID:         int64(rec.ID),
		Node:       int64(rec.Node),
		Item:       int64(rec.Item),
		File:       file[:],
		Precedents: string(precedents),
		Approved:   string(approved),
	}, nil
}

func (m StepModel) toRecord() (provenance.StepRecord, error) {
	file, err := signature.Decode(m.File)
	if err != nil {
		return provenance.StepRecord{}, fmt.Errorf("decode file signature for step %d: %w", m.ID, err)
	}
	var precedents []provenance.StepID
	if err := json.Unmarshal([]byte(m.Precedents), &precedents); err != nil {
		return provenance.StepRecord{}, fmt.Errorf("decode precedents for step %d: %w", m.ID, err)
	}
	var approved []provenance.NodeID
	if err := json.Unmarshal([]byte(m.Approved), &approved); err != nil {
		return provenance.StepRecord{}, fmt.Errorf("decode approvals for step %d: %w", m.ID, err)
	}
	return provenance.StepRecord{
		ID:         provenance.StepID(m.ID),
		Node:       provenance.NodeID(m.Node),
		Item:       provenance.ItemID(m.Item),
		File:       file,
		Precedents: precedents,
		Approved:   approved,
	}, nil
}
