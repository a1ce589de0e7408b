// Package engine implements the top-level granular synthesis engine: the
// sample-accurate grain scheduler, the block processor, the freeze/drift
// position controller, and the lock-free control-thread ingress.
//
// Engine.Process runs on the realtime audio thread and must never
// allocate, block, or take a lock. Everything else (New, SetSampleBuffer,
// UpdateParams, Start, Stop, SetFrozen, SetDrift) may be called from any
// other thread at any time; their effects are absorbed at the start of
// the next Process call.
package engine

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/opengrain/granular/grain"
	"github.com/opengrain/granular/grainevent"
	"github.com/opengrain/granular/lfo"
	"github.com/opengrain/granular/params"
	"github.com/opengrain/granular/rng"
	"github.com/opengrain/granular/sample"
	"github.com/opengrain/granular/smooth"
)

// ErrInvalidSampleRate is returned by New when sampleRate is not positive.
var ErrInvalidSampleRate = errors.New("engine: sample rate must be > 0")

// smoothTimeMs is the fixed smoothing time constant for every
// continuously modulated parameter (spec.md §3).
const smoothTimeMs = 10.0

// commandQueueSize bounds the control-to-audio command channel.
// Parameter updates travel through pendingParams instead (idempotent,
// always-latest-wins); this channel only carries discrete transport and
// mode commands, so a small capacity is plenty (spec.md §5).
const commandQueueSize = 16

// cmdKind tags a single entry in the control queue.
type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdStop
	cmdSetFrozen
	cmdSetDrift
	cmdReset
)

type command struct {
	kind   cmdKind
	flag   bool
	value  float64 // frozen position, or drift basePosition
	speed  float64
	retTnd float64
}

// Engine is a single granular synthesis voice bank, owned by one host
// output stream. The zero value is not usable; construct with New.
type Engine struct {
	sampleRate float64

	bufHandle sample.Handle

	pendingParams atomic.Pointer[params.Engine]
	cmdCh         chan command

	// Audio-thread-private state below. Never touched from any other
	// goroutine.
	playing bool
	buf     *sample.Buffer
	active  params.Engine

	pool   grain.Pool
	events grainevent.Ring
	rngSrc *rng.Source

	currentTime   float64
	nextSpawnTime float64

	smGrainSize *smooth.Smoother
	smPosition  *smooth.Smoother
	smPitch     *smooth.Smoother
	smPan       *smooth.Smoother
	smVolume    *smooth.Smoother

	lfoEval   lfo.Evaluator
	lfoCached float64

	frozen     bool
	frozenPos  float64
	drifting   bool
	driftBase  float64
	driftSpeed float64
	driftRet   float64
	driftPos   float64

	fx params.FXParams
}

// New constructs an Engine for the given host sample rate. Not
// realtime-safe; call once before any Process call.
func New(sampleRate float64) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %f", ErrInvalidSampleRate, sampleRate)
	}

	e := &Engine{
		sampleRate: sampleRate,
		cmdCh:      make(chan command, commandQueueSize),
		rngSrc:     rng.New(1),
		active:     params.Default(),
	}

	e.smGrainSize = smooth.New(sampleRate, smoothTimeMs, e.active.GrainSize)
	e.smPosition = smooth.New(sampleRate, smoothTimeMs, e.active.Position)
	e.smPitch = smooth.New(sampleRate, smoothTimeMs, e.active.Pitch)
	e.smPan = smooth.New(sampleRate, smoothTimeMs, e.active.Pan)
	e.smVolume = smooth.New(sampleRate, smoothTimeMs, e.active.MasterGain)

	e.lfoEval = lfo.Evaluator{Rate: e.active.LFORate, Shape: e.active.LFOShape}
	e.driftPos = e.active.Position

	p := e.active
	e.pendingParams.Store(&p)

	return e, nil
}

// SetSampleBuffer installs buf as the engine's sample source, taking
// ownership: the caller must not mutate data after this call. Not
// realtime-safe; the new buffer takes effect at the start of the next
// Process call.
func (e *Engine) SetSampleBuffer(data []float32, channels, length int) error {
	buf, err := sample.New(data, channels, length)
	if err != nil {
		return fmt.Errorf("engine: set sample buffer: %w", err)
	}

	e.bufHandle.Publish(buf)

	return nil
}

// UpdateParams atomically replaces the parameter record consumed by the
// next Process call. Safe to call from any thread at any time; the
// engine always observes a fully formed record, and the most recently
// submitted record wins (spec.md §5).
func (e *Engine) UpdateParams(p params.Engine) {
	clamped := p.Clamped()
	e.pendingParams.Store(&clamped)
}

// Start begins grain scheduling. Safe to call from any thread.
func (e *Engine) Start() {
	e.enqueue(command{kind: cmdStart})
}

// Stop halts grain scheduling and immediately deactivates all grains.
// The caller is expected to fade output externally to avoid a click
// (spec.md §4.5). Safe to call from any thread.
func (e *Engine) Stop() {
	e.enqueue(command{kind: cmdStop})
}

// SetFrozen pins the read position to position while flag is true,
// overriding manual and drift positions; flag false releases the
// freeze. Safe to call from any thread.
func (e *Engine) SetFrozen(flag bool, position float64) {
	e.enqueue(command{kind: cmdSetFrozen, flag: flag, value: position})
}

// SetDrift enables or disables the bounded random-walk position
// modulator. speed and returnTendency are both expected in [0, 1]. Safe
// to call from any thread.
func (e *Engine) SetDrift(flag bool, basePosition, speed, returnTendency float64) {
	e.enqueue(command{kind: cmdSetDrift, flag: flag, value: basePosition, speed: speed, retTnd: returnTendency})
}

// ResetPool deactivates every grain immediately without affecting
// transport state. Safe to call from any thread.
func (e *Engine) ResetPool() {
	e.enqueue(command{kind: cmdReset})
}

// enqueue submits cmd to the control channel, dropping the oldest
// pending command on overflow (parameter updates are idempotent and use
// a separate path; discrete commands here are not, but an overflowing
// queue means the audio thread is already behind, so the newest intent
// should win per spec.md §5/§7).
func (e *Engine) enqueue(cmd command) {
	for {
		select {
		case e.cmdCh <- cmd:
			return
		default:
		}

		select {
		case <-e.cmdCh:
		default:
		}
	}
}

// DrainGrainEvents returns zero or more pending visualization events and
// clears the internal ring. Safe to call from the control/UI thread.
func (e *Engine) DrainGrainEvents() []grainevent.Event {
	return e.events.Drain(nil)
}

// FXParams returns the most recently computed snapshot of the
// already-modulated FX pass-through parameters, for the caller to feed
// into fx.Chain.Process after this block's Process call.
func (e *Engine) FXParams() params.FXParams {
	return e.fx
}

// CurrentTime returns the engine clock in seconds.
func (e *Engine) CurrentTime() float64 {
	return e.currentTime
}

// Process writes numFrames samples to each of outL and outR, which must
// already have at least that length. Realtime-safe: no allocation, no
// locks, bounded work per sample. outL/outR are left at zero if the
// engine is not playing or has no sample buffer.
func (e *Engine) Process(outL, outR []float64) {
	numFrames := len(outL)

	for i := 0; i < numFrames; i++ {
		outL[i] = 0
		outR[i] = 0
	}

	e.drainCommands()
	e.applyPendingParams()

	blockDur := float64(numFrames) / e.sampleRate

	if !e.playing || e.buf == nil || e.buf.Length == 0 {
		e.currentTime += blockDur
		return
	}

	e.lfoCached = e.lfoEval.Value(e.currentTime)

	for i := 0; i < numFrames; i++ {
		e.smGrainSize.Advance()
		e.smPosition.Advance()
		e.smPitch.Advance()
		e.smPan.Advance()
		e.smVolume.Advance()
	}

	e.updateDrift(blockDur)
	e.computeFXSnapshot()
	e.runScheduler(blockDur)
	e.pool.Mix(e.buf, outL, outR)

	e.currentTime += blockDur
}

// drainCommands applies every pending discrete command, in submission
// order, before scheduling begins for this block (spec.md §5: "reads
// pending commands at the start of process and applies them atomically
// before scheduling begins").
func (e *Engine) drainCommands() {
	for {
		select {
		case cmd := <-e.cmdCh:
			e.applyCommand(cmd)
		default:
			return
		}
	}
}

func (e *Engine) applyCommand(cmd command) {
	switch cmd.kind {
	case cmdStart:
		e.playing = true
		e.nextSpawnTime = e.currentTime
	case cmdStop:
		e.playing = false
		e.pool.Reset()
	case cmdSetFrozen:
		e.frozen = cmd.flag
		if cmd.flag {
			e.frozenPos = cmd.value
		}
	case cmdSetDrift:
		e.drifting = cmd.flag
		if cmd.flag {
			e.driftBase = cmd.value
			e.driftSpeed = cmd.speed
			e.driftRet = cmd.retTnd
			e.driftPos = cmd.value
		}
	case cmdReset:
		e.pool.Reset()
	}
}

// applyPendingParams absorbs the latest parameter record, refreshes the
// buffer handle, and re-targets every smoother.
func (e *Engine) applyPendingParams() {
	if p := e.pendingParams.Load(); p != nil {
		e.active = *p
	}

	if b := e.bufHandle.Load(); b != e.buf {
		e.buf = b
	}

	e.smGrainSize.Configure(e.sampleRate, smoothTimeMs)
	e.smPosition.Configure(e.sampleRate, smoothTimeMs)
	e.smPitch.Configure(e.sampleRate, smoothTimeMs)
	e.smPan.Configure(e.sampleRate, smoothTimeMs)
	e.smVolume.Configure(e.sampleRate, smoothTimeMs)

	e.smGrainSize.SetTarget(e.active.GrainSize)
	e.smPosition.SetTarget(e.active.Position)
	e.smPitch.SetTarget(e.active.Pitch)
	e.smPan.SetTarget(e.active.Pan)
	e.smVolume.SetTarget(e.active.MasterGain)

	e.lfoEval.Rate = e.active.LFORate
	e.lfoEval.Shape = e.active.LFOShape
}

// updateDrift advances the bounded random walk position controller
// (spec.md §4.4) when drifting and not frozen. Priority is
// frozen > drifting > manual, enforced here by skipping the update
// entirely while frozen; resolvePosition enforces the same priority when
// reading back the result.
func (e *Engine) updateDrift(blockDur float64) {
	if !e.drifting || e.frozen {
		return
	}

	step := e.driftSpeed * blockDur * 0.5
	randomStep := (e.rngSrc.Float64() - 0.5) * 2 * step
	returnForce := (e.driftBase - e.driftPos) * e.driftRet * blockDur * 0.5

	e.driftPos = clamp01(e.driftPos + randomStep + returnForce)
}

// resolvePosition returns the base read position for this block, before
// the modulation mux is applied, honoring frozen > drifting > manual
// priority (spec.md §4.4).
func (e *Engine) resolvePosition() float64 {
	switch {
	case e.frozen:
		return e.frozenPos
	case e.drifting:
		return e.driftPos
	default:
		return e.smPosition.Current()
	}
}

// modulated applies the LFO modulation mux for target t to base using
// the engine's cached block LFO value and depth.
func (e *Engine) modulated(base float64, t params.Target) float64 {
	return params.Modulated(base, e.active.LFOTargetMask, t, e.lfoCached, e.active.LFOAmount)
}

// computeFXSnapshot resolves the already-modulated FX pass-through
// values for this block, exposed via FXParams for the caller to feed to
// fx.Chain after Process returns.
func (e *Engine) computeFXSnapshot() {
	a := e.active

	e.fx = params.FXParams{
		FilterFreq:    params.RangeFilterFreq.Clamp(e.modulated(a.FilterFreq, params.TargetFilterFreq)),
		FilterRes:     params.RangeFilterRes.Clamp(e.modulated(a.FilterRes, params.TargetFilterRes)),
		DistAmount:    params.RangeDistAmount.Clamp(e.modulated(a.DistAmount, params.TargetDistAmount)),
		DelayMix:      params.RangeDelayMix.Clamp(e.modulated(a.DelayMix, params.TargetDelayMix)),
		DelayTime:     params.RangeDelayTime.Clamp(e.modulated(a.DelayTime, params.TargetDelayTime)),
		DelayFeedback: params.RangeDelayFeedback.Clamp(e.modulated(a.DelayFeedback, params.TargetDelayFeedback)),
		ReverbMix:     a.ReverbMix,
		ReverbDecay:   a.ReverbDecay,
		MasterGain:    e.smVolume.Current(),
	}
}

// runScheduler advances the grain clock and spawns grains so that every
// spawn event whose time falls within this block actually happens
// (spec.md §4.5).
func (e *Engine) runScheduler(blockDur float64) {
	blockEnd := e.currentTime + blockDur

	for e.nextSpawnTime < blockEnd {
		e.spawnOne()

		density := e.modulated(e.active.Density, params.TargetDensity)
		if density < 0.005 {
			density = 0.005
		}

		e.nextSpawnTime += density
	}
}

// spawnOne resolves the fully modulated spawn parameters for a single
// grain, asks the pool to spawn it, and emits a visualization event
// (spec.md §4.6).
func (e *Engine) spawnOne() {
	a := e.active

	in := grain.SpawnInput{
		SampleRate:   e.sampleRate,
		BufferLength: e.buf.Length,
		EngineTime:   e.currentTime,

		GrainSize:      params.RangeGrainSize.Clamp(e.modulated(e.smGrainSize.Current(), params.TargetGrainSize)),
		Pitch:          params.RangePitch.Clamp(e.modulated(e.smPitch.Current(), params.TargetPitch)),
		Detune:         a.Detune,
		FMFreq:         params.RangeFMFreq.Clamp(e.modulated(a.FMFreq, params.TargetFMFreq)),
		FMAmount:       params.RangeFMAmount.Clamp(e.modulated(a.FMAmount, params.TargetFMAmount)),
		ReversalChance: a.GrainReversalChance,

		Position:  params.RangePosition.Clamp(e.modulated(e.resolvePosition(), params.TargetPosition)),
		Spread:    params.RangeSpread.Clamp(e.modulated(a.Spread, params.TargetSpread)),
		Pan:       params.RangePan.Clamp(e.modulated(e.smPan.Current(), params.TargetPan)),
		PanSpread: params.RangePanSpread.Clamp(e.modulated(a.PanSpread, params.TargetPanSpread)),

		Attack:      params.RangeAttackRelease.Clamp(e.modulated(a.Attack, params.TargetAttack)),
		Release:     params.RangeAttackRelease.Clamp(e.modulated(a.Release, params.TargetRelease)),
		Exponential: a.ExponentialEnv,
	}

	rec := e.pool.Spawn(in, e.rngSrc)

	e.events.Push(grainevent.Event{
		NormPos:  rec.NormStart,
		Duration: rec.DurationSec,
		Pan:      rec.Pan,
	})
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
