package relay

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ajserban/raymed/internal/observability"
	"github.com/ajserban/raymed/internal/realtime"
	"github.com/ajserban/raymed/internal/reliability"
	"github.com/ajserban/raymed/internal/telephony"
)

// TelephonyLink is the duplex socket to the caller-side media stream.
type TelephonyLink interface {
	ReadFrame() (any, error)
	WriteMedia(streamID, payload string) error
	WriteMark(streamID, name string) error
	WriteClear(streamID string) error
	Close() error
}

// AILink is the duplex socket to the AI speech endpoint.
type AILink interface {
	ReadEvent() (any, error)
	SendSessionUpdate(cfg realtime.SessionConfig) error
	SendUserText(text string) error
	SendResponseCreate() error
	SendAudioAppend(audio string) error
	SendTruncate(itemID string, audioEndMs int64) error
	Close() error
}

// Config holds the per-call handshake parameters.
type Config struct {
	// Instructions is the behavioral instructions text for the session
	// configuration event.
	Instructions string
	// Briefing is the contextual prompt sent as the initial
	// conversational turn.
	Briefing string
	Voice    string
	// Temperature tunes response sampling; the endpoint default is used
	// when zero.
	Temperature float64
	// SettleDelay is the fixed pause between socket open and the session
	// configuration event. The endpoint drops events sent before its
	// session is ready.
	SettleDelay time.Duration
	// OnStreamStart, when set, is invoked with the stream identifier of
	// each start frame, so callers can tie the stream to their own
	// call bookkeeping.
	OnStreamStart func(streamID string)
}

type sourceLink string

const (
	linkTelephony sourceLink = "telephony"
	linkAI        sourceLink = "ai"
)

type inboundMsg struct {
	source sourceLink
	msg    any
}

// Coordinator owns one Session and both links for the lifetime of a
// call. Two reader goroutines funnel decoded frames into one ordered
// channel; a single handler loop applies them to the session, so the
// barge-in and pacing logic never races.
type Coordinator struct {
	cfg     Config
	tel     TelephonyLink
	ai      AILink
	sess    *Session
	metrics *observability.Metrics
}

func NewCoordinator(cfg Config, tel TelephonyLink, ai AILink, metrics *observability.Metrics) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		tel:     tel,
		ai:      ai,
		sess:    NewSession(),
		metrics: metrics,
	}
}

// Run performs the AI handshake and then bridges both links until
// either socket closes or ctx is cancelled. Both sockets are closed on
// return; a dropped link ends the call, no reconnect is attempted.
func (c *Coordinator) Run(ctx context.Context) error {
	defer c.tel.Close()
	defer c.ai.Close()

	if err := c.handshake(ctx); err != nil {
		return err
	}

	msgs := make(chan inboundMsg, 64)

	// Either reader exiting, cleanly or not, must tear down the peer
	// link too: a dropped link ends the call.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancelRun()
		for {
			frame, err := c.tel.ReadFrame()
			if err != nil {
				if reliability.IsNormalClosure(err) {
					return nil
				}
				return err
			}
			select {
			case msgs <- inboundMsg{source: linkTelephony, msg: frame}:
			case <-gctx.Done():
				return nil
			}
		}
	})
	g.Go(func() error {
		defer cancelRun()
		for {
			ev, err := c.ai.ReadEvent()
			if err != nil {
				if reliability.IsNormalClosure(err) {
					return nil
				}
				return err
			}
			select {
			case msgs <- inboundMsg{source: linkAI, msg: ev}:
			case <-gctx.Done():
				return nil
			}
		}
	})
	// Closing the sockets is the only way to unblock a reader parked on
	// a socket read.
	g.Go(func() error {
		<-gctx.Done()
		c.tel.Close()
		c.ai.Close()
		return nil
	})

	handlerDone := make(chan struct{})
	go func() {
		defer close(handlerDone)
		for m := range msgs {
			c.handle(m)
		}
	}()

	err := g.Wait()
	close(msgs)
	<-handlerDone
	return err
}

func (c *Coordinator) handshake(ctx context.Context) error {
	select {
	case <-time.After(c.cfg.SettleDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := c.ai.SendSessionUpdate(realtime.SessionConfig{
		Voice:        c.cfg.Voice,
		Instructions: c.cfg.Instructions,
		Temperature:  c.cfg.Temperature,
	}); err != nil {
		return err
	}
	if err := c.ai.SendUserText(c.cfg.Briefing); err != nil {
		return err
	}
	return c.ai.SendResponseCreate()
}

func (c *Coordinator) handle(m inboundMsg) {
	switch m.source {
	case linkTelephony:
		c.handleTelephony(m.msg)
	case linkAI:
		c.handleAI(m.msg)
	}
}

func (c *Coordinator) handleTelephony(msg any) {
	switch f := msg.(type) {
	case telephony.StartFrame:
		c.sess.ResetEpoch(f.StreamID)
		c.countFrame(linkTelephony, "start")
		if c.cfg.OnStreamStart != nil {
			c.cfg.OnStreamStart(f.StreamID)
		}
		log.Printf("relay: stream started streamSid=%s", f.StreamID)
	case telephony.MediaFrame:
		c.sess.ObserveMediaTimestamp(f.TimestampMs)
		c.countFrame(linkTelephony, "media")
		if f.Payload == "" {
			return
		}
		if err := c.ai.SendAudioAppend(f.Payload); err != nil {
			c.countError(linkAI, "append_write")
			log.Printf("relay: forward caller audio: %v", err)
		}
	case telephony.MarkFrame:
		c.countFrame(linkTelephony, "mark")
		// An acknowledgement racing a barge-in reset can find the queue
		// already empty; that is benign.
		if _, err := c.sess.Marks.PopOldest(); err != nil && err != ErrEmptyQueue {
			log.Printf("relay: mark ack: %v", err)
		}
	case telephony.StopFrame:
		c.countFrame(linkTelephony, "stop")
		log.Printf("relay: stream stopping streamSid=%s", c.sess.StreamID)
	case telephony.UnrecognizedFrame:
		c.countFrame(linkTelephony, "unrecognized")
		log.Printf("relay: dropping unrecognized telephony event %q", f.Event)
	}
}

func (c *Coordinator) handleAI(msg any) {
	switch ev := msg.(type) {
	case realtime.AudioDelta:
		c.countFrame(linkAI, "audio_delta")
		c.forwardAudioDelta(ev)
	case realtime.SpeechStarted:
		c.countFrame(linkAI, "speech_started")
		c.handleBargeIn()
	case realtime.UpstreamError:
		c.countError(linkAI, "upstream")
		log.Printf("relay: AI endpoint error code=%s message=%s", ev.Code, ev.Message)
	case realtime.Unrecognized:
		c.countFrame(linkAI, "unrecognized")
	}
}

func (c *Coordinator) forwardAudioDelta(ev realtime.AudioDelta) {
	if ev.Delta == "" {
		return
	}
	if c.sess.StreamID == "" {
		// No stream epoch yet, nowhere to play the audio.
		return
	}
	if err := c.tel.WriteMedia(c.sess.StreamID, ev.Delta); err != nil {
		c.countError(linkTelephony, "media_write")
		log.Printf("relay: forward AI audio: %v", err)
		return
	}

	// The first chunk of an utterance pins the caller-clock reference
	// point used for truncation math on barge-in.
	c.sess.MarkResponseStart()
	if ev.ItemID != "" {
		c.sess.ActiveUtteranceID = ev.ItemID
	}

	name := uuid.NewString()
	if err := c.tel.WriteMark(c.sess.StreamID, name); err != nil {
		c.countError(linkTelephony, "mark_write")
		log.Printf("relay: send mark: %v", err)
		return
	}
	c.sess.Marks.Push(name)
}

// handleBargeIn truncates the in-flight AI utterance at the point the
// caller actually heard it and flushes unplayed audio on the caller
// side. A barge-in with no AI audio in flight is a no-op.
func (c *Coordinator) handleBargeIn() {
	start, ok := c.sess.ResponseStart()
	if c.sess.Marks.Len() == 0 || !ok {
		return
	}

	elapsed := c.sess.LatestMediaTimestampMs - start
	if elapsed < 0 {
		elapsed = 0
	}
	if c.sess.ActiveUtteranceID != "" {
		if err := c.ai.SendTruncate(c.sess.ActiveUtteranceID, elapsed); err != nil {
			c.countError(linkAI, "truncate_write")
			log.Printf("relay: truncate utterance: %v", err)
		}
	}
	if err := c.tel.WriteClear(c.sess.StreamID); err != nil {
		c.countError(linkTelephony, "clear_write")
		log.Printf("relay: clear playback buffer: %v", err)
	}

	c.sess.ClearPlayback()
	if c.metrics != nil {
		c.metrics.BargeIns.Inc()
	}
	log.Printf("relay: barge-in truncated utterance at %dms", elapsed)
}

func (c *Coordinator) countFrame(link sourceLink, frameType string) {
	if c.metrics == nil {
		return
	}
	c.metrics.RelayFrames.WithLabelValues(string(link), frameType).Inc()
}

func (c *Coordinator) countError(link sourceLink, code string) {
	if c.metrics == nil {
		return
	}
	c.metrics.RelayErrors.WithLabelValues(string(link), code).Inc()
}
