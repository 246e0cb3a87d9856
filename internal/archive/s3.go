/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package archive

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/friendsincode/panchangam/internal/storage"
)

// ObjectSink writes each record as a JSON object. The object key is derived
// from the cache key so re-archiving overwrites.
type ObjectSink struct {
	store  storage.ObjectStore
	prefix string
}

// NewObjectSink returns a sink writing under prefix.
func NewObjectSink(store storage.ObjectStore, prefix string) *ObjectSink {
	return &ObjectSink{store: store, prefix: prefix}
}

// Name implements Sink.
func (s *ObjectSink) Name() string { return "s3" }

// Write implements Sink. Every record is attempted; the errors are joined.
func (s *ObjectSink) Write(ctx context.Context, records []Record) error {
	var errs []error
	for _, r := range records {
		if err := s.store.Put(ctx, s.ObjectKey(r), r.Payload, "application/json"); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ObjectKey maps a record to <prefix><kind>/<location>/<period>[_<suffix>].json.
func (s *ObjectSink) ObjectKey(r Record) string {
	name := r.Period
	if r.Region != "" {
		name += "_" + r.Region
	}
	if r.Kind == KindMuhurtham {
		if i := strings.LastIndex(r.CacheKey, ":"); i >= 0 {
			name += "_" + r.CacheKey[i+1:]
		}
	}
	loc := strings.NewReplacer("/", "_", ",", "_").Replace(r.Location)
	return s.prefix + path.Join(r.Kind, loc, name+".json")
}
