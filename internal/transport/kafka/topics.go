// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package kafka

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"

	"github.com/ManuGH/idemflow/internal/log"
)

// TopicSpec describes a topic to create.
type TopicSpec struct {
	Name       string
	Partitions int32
	Replicas   int16
}

// ParseTopicSpec reads "name", "name:partitions" or
// "name:partitions:replicas". Parsing stops at the first malformed number and
// whatever is left keeps its default of 1. ok is false for a blank name.
func ParseTopicSpec(raw string) (spec TopicSpec, ok bool) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	spec = TopicSpec{Name: strings.TrimSpace(parts[0]), Partitions: 1, Replicas: 1}
	if spec.Name == "" {
		return TopicSpec{}, false
	}
	if len(parts) >= 2 {
		n, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 32)
		if err != nil || n < 1 {
			return spec, true
		}
		spec.Partitions = int32(n)
	}
	if len(parts) >= 3 {
		n, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 16)
		if err != nil || n < 1 {
			return spec, true
		}
		spec.Replicas = int16(n)
	}
	return spec, true
}

// ParseTopicSpecs skips blank entries.
func ParseTopicSpecs(raw []string) []TopicSpec {
	var out []TopicSpec
	for _, r := range raw {
		if spec, ok := ParseTopicSpec(r); ok {
			out = append(out, spec)
		}
	}
	return out
}

// ShouldAutoCreate reports whether topics may be created. With allowed
// profiles configured, at least one must be active.
func ShouldAutoCreate(autoCreate bool, allowedProfiles, activeProfiles []string) bool {
	if !autoCreate {
		return false
	}
	if len(allowedProfiles) == 0 {
		return true
	}
	for _, p := range activeProfiles {
		if slices.Contains(allowedProfiles, p) {
			return true
		}
	}
	return false
}

// TopicCreator is satisfied by *kadm.Client.
type TopicCreator interface {
	CreateTopics(ctx context.Context, partitions int32, replicationFactor int16, configs map[string]*string, topics ...string) (kadm.CreateTopicResponses, error)
}

// EnsureTopics creates every spec, treating "already exists" as success.
func EnsureTopics(ctx context.Context, adm TopicCreator, specs []TopicSpec) error {
	logger := log.WithComponent("kafka")
	var errs []error
	for _, spec := range specs {
		resps, err := adm.CreateTopics(ctx, spec.Partitions, spec.Replicas, nil, spec.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("create topic %s: %w", spec.Name, err))
			continue
		}
		for name, resp := range resps {
			switch {
			case resp.Err == nil:
				logger.Info().
					Str(log.FieldEvent, "kafka.topic_created").
					Str(log.FieldTopic, name).
					Int32("partitions", spec.Partitions).
					Int16("replicas", spec.Replicas).
					Msg("topic created")
			case errors.Is(resp.Err, kerr.TopicAlreadyExists):
				logger.Debug().
					Str(log.FieldEvent, "kafka.topic_exists").
					Str(log.FieldTopic, name).
					Msg("topic already exists")
			default:
				errs = append(errs, fmt.Errorf("create topic %s: %w", name, resp.Err))
			}
		}
	}
	return errors.Join(errs...)
}
