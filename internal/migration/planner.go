// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"context"

	"github.com/hashgraph/solo-storekeeper/internal/chain"
	"github.com/hashgraph/solo-storekeeper/internal/engine"
	"github.com/hashgraph/solo-storekeeper/pkg/schema"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
)

// Planner computes the steps needed to bring a store to a target schema
type Planner struct {
	model    *schema.Model
	graph    *chain.Graph
	inferrer engine.MappingInferrer
	logger   *zerolog.Logger
}

// NewPlanner returns a planner for the historical schemas of model and the declared version graph.
// A nil graph is treated as an empty graph.
func NewPlanner(model *schema.Model, graph *chain.Graph, inferrer engine.MappingInferrer, opts ...Option) (*Planner, error) {
	if model == nil {
		return nil, errorx.IllegalArgument.New("model is required")
	}
	if inferrer == nil {
		return nil, errorx.IllegalArgument.New("mapping inferrer is required")
	}
	if graph == nil {
		graph = chain.Empty()
	}

	o := newOptions(opts...)
	return &Planner{
		model:    model,
		graph:    graph,
		inferrer: inferrer,
		logger:   o.logger,
	}, nil
}

// Graph returns the declared version graph
func (p *Planner) Graph() *chain.Graph {
	return p.graph
}

// Detect returns the schema of the model the metadata was recorded with
func (p *Planner) Detect(md schema.Metadata, configuration string) (*schema.Schema, error) {
	s, ok := p.model.Detect(md, configuration)
	if !ok {
		return nil, SourceVersionUnknown.New("store schema (recorded as %q) matches no known schema version", md.Version).
			WithProperty(PropertySourceVersion, md.Version)
	}
	return s, nil
}

// Plan returns the steps that migrate a store recorded with md to target.
//
// A compatible store yields an empty plan. Otherwise the store's version is detected among the model's
// schemas and the declared graph is walked from it until target is reached. Without a declared graph a
// single step from the detected version to target is planned. Every hop takes its mapping from the first
// provider that has one, which makes it heavyweight, or from inference, which makes it lightweight. Any
// hop without a mapping fails the whole plan.
func (p *Planner) Plan(ctx context.Context, md schema.Metadata, configuration string, target *schema.Schema,
	providers []engine.MappingProvider) (*Plan, error) {
	if target == nil {
		return nil, errorx.IllegalArgument.New("target schema is required")
	}

	plan := &Plan{Configuration: configuration}

	if IsCompatible(md, configuration, target) {
		p.logger.Debug().Str("target", target.Version).Msg("Store is compatible, no migration required")
		return plan, nil
	}

	detected, err := p.Detect(md, configuration)
	if err != nil {
		return nil, err
	}

	hops, err := p.hops(detected, target, configuration)
	if err != nil {
		return nil, err
	}

	for _, hop := range hops {
		step, err := p.resolve(ctx, hop[0], hop[1], configuration, providers)
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, step)
	}

	if err = plan.Validate(target); err != nil {
		return nil, err
	}

	p.logger.Debug().
		Str("source", detected.Version).
		Str("target", target.Version).
		Int("steps", len(plan.Steps)).
		Str("type", plan.Type().String()).
		Msg("Planned migration")

	return plan, nil
}

// hops returns the ordered (source, destination) pairs from detected to target
func (p *Planner) hops(detected, target *schema.Schema, configuration string) ([][2]*schema.Schema, error) {
	if p.graph.IsTrivial() {
		return [][2]*schema.Schema{{detected, target}}, nil
	}

	if !p.graph.Contains(detected.Version) {
		return nil, MappingUnresolved.New("store version %s is not part of the migration chain %s", detected.Version, p.graph).
			WithProperty(PropertySourceVersion, detected.Version).
			WithProperty(PropertyDestinationVersion, target.Version)
	}

	var hops [][2]*schema.Schema
	cur := detected
	for i := 0; i <= p.graph.Len(); i++ {
		next, ok := p.graph.NextVersion(cur.Version)
		if !ok {
			return nil, MappingUnresolved.New("migration chain ends at %s without reaching %s", cur.Version, target.Version).
				WithProperty(PropertySourceVersion, detected.Version).
				WithProperty(PropertyDestinationVersion, target.Version)
		}

		dst := target
		if next != target.Version {
			if dst, ok = p.model.Schema(next); !ok {
				return nil, MappingUnresolved.New("migration chain references unknown version %s", next).
					WithProperty(PropertySourceVersion, cur.Version).
					WithProperty(PropertyDestinationVersion, next)
			}
		}

		hops = append(hops, [2]*schema.Schema{cur, dst})
		if dst.Version == target.Version || schema.SameHashes(dst, target, configuration) {
			return hops, nil
		}
		cur = dst
	}

	// unreachable for a validated graph
	return nil, MappingUnresolved.New("migration chain from %s does not terminate", detected.Version)
}

func (p *Planner) resolve(ctx context.Context, src, dst *schema.Schema, configuration string,
	providers []engine.MappingProvider) (Step, error) {
	step := Step{Source: src, Destination: dst, Configuration: configuration}

	for _, provider := range providers {
		if provider == nil {
			continue
		}
		m, ok := provider.MappingFor(ctx, src, dst)
		if !ok || m == nil {
			continue
		}
		if err := m.Validate(src, dst); err != nil {
			return step, MappingUnresolved.Wrap(err, "explicit mapping %s -> %s is invalid", src.Version, dst.Version).
				WithProperty(PropertySourceVersion, src.Version).
				WithProperty(PropertyDestinationVersion, dst.Version)
		}
		step.Mapping = m
		step.Type = Heavyweight
		return step, nil
	}

	m, err := p.inferrer.InferMapping(ctx, src, dst)
	if err != nil {
		return step, MappingUnresolved.Wrap(err, "no mapping from %s to %s", src.Version, dst.Version).
			WithProperty(PropertySourceVersion, src.Version).
			WithProperty(PropertyDestinationVersion, dst.Version)
	}
	step.Mapping = m
	step.Type = Lightweight
	return step, nil
}
