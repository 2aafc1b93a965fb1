package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-custody/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ConversionJournal persists committed conversions. Rows are written from
// inside the ledger transaction so a rolled back conversion leaves no entry.
type ConversionJournal struct {
	db   *bun.DB
	repo repository.Repository[*conversionRecord]
}

func NewConversionJournal(db *bun.DB) (*ConversionJournal, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*conversionRecord](db, conversionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid conversion repository wiring: %w", err)
		}
	}
	return &ConversionJournal{db: db, repo: repo}, nil
}

// RecordTx appends conversion to the journal using tx. Conversion ids are
// expected to be UUIDs.
func (j *ConversionJournal) RecordTx(ctx context.Context, tx bun.Tx, conversion core.Conversion) error {
	if j == nil || j.repo == nil {
		return fmt.Errorf("sqlstore: conversion journal is not configured")
	}
	if _, err := core.ParseConversionDirection(string(conversion.Direction)); err != nil {
		return err
	}
	var sequence int64
	if err := tx.NewSelect().
		Model((*conversionRecord)(nil)).
		ColumnExpr("COALESCE(MAX(sequence), 0)").
		Scan(ctx, &sequence); err != nil {
		return err
	}
	record := newConversionRecord(conversion, sequence+1)
	_, err := j.repo.CreateTx(ctx, tx, record)
	return err
}

func (j *ConversionJournal) ListConversions(ctx context.Context, filter core.ConversionFilter) (core.ConversionPage, error) {
	if j == nil || j.repo == nil {
		return core.ConversionPage{}, fmt.Errorf("sqlstore: conversion journal is not configured")
	}
	filter = core.NormalizeConversionFilter(filter)

	selectors := []repository.SelectCriteria{
		repository.OrderBy("sequence DESC"),
		repository.SelectPaginate(filter.Limit, filter.Offset),
	}
	if filter.Account != nil {
		selectors = append(selectors, repository.SelectBy("account", "=", accountKey(*filter.Account)))
	}
	if filter.Direction != "" {
		selectors = append(selectors, repository.SelectBy("direction", "=", string(filter.Direction)))
	}

	records, total, err := j.repo.List(ctx, selectors...)
	if err != nil {
		return core.ConversionPage{}, err
	}
	items := make([]core.Conversion, 0, len(records))
	for _, record := range records {
		conversion, err := record.toDomain()
		if err != nil {
			return core.ConversionPage{}, err
		}
		items = append(items, conversion)
	}
	return core.ConversionPage{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

func newConversionRecord(conversion core.Conversion, sequence int64) *conversionRecord {
	createdAt := conversion.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &conversionRecord{
		ID:               conversion.ID,
		Sequence:         sequence,
		Direction:        string(conversion.Direction),
		Account:          accountKey(conversion.Account),
		SourceAmount:     encodeUint256(conversion.SourceAmount),
		DerivativeAmount: encodeUint64(conversion.DerivativeAmount),
		Residue:          encodeUint256(conversion.Residue),
		CreatedAt:        createdAt,
	}
}

func (r *conversionRecord) toDomain() (core.Conversion, error) {
	direction, err := core.ParseConversionDirection(r.Direction)
	if err != nil {
		return core.Conversion{}, err
	}
	account, err := parseAccount(r.Account)
	if err != nil {
		return core.Conversion{}, err
	}
	sourceAmount, err := decodeUint256(r.SourceAmount)
	if err != nil {
		return core.Conversion{}, err
	}
	derivativeAmount, err := decodeUint64(r.DerivativeAmount)
	if err != nil {
		return core.Conversion{}, err
	}
	residue, err := decodeUint256(r.Residue)
	if err != nil {
		return core.Conversion{}, err
	}
	return core.Conversion{
		ID:               r.ID,
		Direction:        direction,
		Account:          account,
		SourceAmount:     sourceAmount,
		DerivativeAmount: derivativeAmount,
		Residue:          residue,
		CreatedAt:        r.CreatedAt.UTC(),
	}, nil
}
