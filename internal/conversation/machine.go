// Package conversation drives the multi-step entry of a transaction. The
// machine is a table from (state, input kind) to a transition; anything
// missing from the table is answered with a generic notice and leaves the
// session untouched.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ledgerbot/internal/core"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/log"
	"ledgerbot/internal/session"
)

// ErrUnexpectedInput means the input kind does not fit the current state.
var ErrUnexpectedInput = errors.New("unexpected input for current state")

// InputKind is the shape of an inbound event.
type InputKind int

const (
	InputStart InputKind = iota
	InputCancel
	InputText
	InputSelection
)

func (k InputKind) String() string {
	switch k {
	case InputStart:
		return "start"
	case InputCancel:
		return "cancel"
	case InputText:
		return "text"
	case InputSelection:
		return "selection"
	default:
		return fmt.Sprintf("input(%d)", int(k))
	}
}

// Input is one user event. Text holds the message or the selection payload.
type Input struct {
	Kind   InputKind
	UserID int64
	Author string
	Text   string
}

type transitionKey struct {
	state session.State
	input InputKind
}

type transitionFunc func(ctx context.Context, sess session.Session, in Input) ([]Reply, error)

var allStates = []session.State{
	session.Idle,
	session.AwaitingAmount,
	session.AwaitingKind,
	session.AwaitingCategory,
	session.AwaitingDescription,
}

// Machine runs conversations for any number of users. Calls for the same
// user must be serialized by the caller.
type Machine struct {
	flow     Flow
	catalog  core.Catalog
	sessions *session.Store
	writer   ledger.Writer
	logger   *log.Logger
	table    map[transitionKey]transitionFunc
}

// NewMachine wires the transition table for flow.
func NewMachine(flow Flow, catalog core.Catalog, sessions *session.Store, writer ledger.Writer, logger *log.Logger) (*Machine, error) {
	if flow == nil {
		return nil, errors.New("conversation flow is required")
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	if logger == nil {
		logger = log.Discard()
	}

	m := &Machine{
		flow:     flow,
		catalog:  catalog,
		sessions: sessions,
		writer:   writer,
		logger:   logger.WithComponent(log.ComponentConversation),
		table:    make(map[transitionKey]transitionFunc),
	}

	for _, st := range allStates {
		m.table[transitionKey{st, InputStart}] = m.start
		m.table[transitionKey{st, InputCancel}] = m.cancel
	}
	m.table[transitionKey{session.Idle, InputText}] = m.idleText
	m.table[transitionKey{session.AwaitingAmount, InputText}] = m.amount
	m.table[transitionKey{session.AwaitingKind, InputSelection}] = m.kind
	m.table[transitionKey{session.AwaitingCategory, InputSelection}] = m.category
	m.table[transitionKey{session.AwaitingDescription, InputText}] = m.description

	return m, nil
}

// State returns where the user's conversation currently stands.
func (m *Machine) State(userID int64) session.State {
	if sess, ok := m.sessions.Get(userID); ok {
		return sess.State
	}
	return session.Idle
}

// Handle applies one input and returns the replies to send, in order. A
// non-nil error is informational: the replies already tell the user what
// went wrong.
func (m *Machine) Handle(ctx context.Context, in Input) ([]Reply, error) {
	sess, ok := m.sessions.Get(in.UserID)
	if !ok {
		sess = session.Session{UserID: in.UserID, State: session.Idle}
	}
	from := sess.State

	fn, ok := m.table[transitionKey{from, in.Kind}]
	if !ok {
		fn = m.unexpected
	}
	replies, err := fn(ctx, sess, in)

	fields := log.NewFields().
		WithUser(in.UserID, in.Author).
		WithTransition(from.String(), m.State(in.UserID).String()).
		WithError(err)
	fields[log.FieldInput] = in.Kind.String()
	m.logger.DebugContext(ctx, "Conversation step", fields.ToSlice()...)

	return replies, err
}

func (m *Machine) start(_ context.Context, _ session.Session, in Input) ([]Reply, error) {
	if _, resumed := m.sessions.Begin(in.UserID); resumed {
		return []Reply{Markdown(msgWelcomeBack)}, nil
	}
	return []Reply{Markdown(msgWelcome)}, nil
}

func (m *Machine) cancel(_ context.Context, _ session.Session, in Input) ([]Reply, error) {
	m.sessions.Clear(in.UserID)
	return []Reply{Markdown(msgCanceled)}, nil
}

func (m *Machine) idleText(_ context.Context, _ session.Session, _ Input) ([]Reply, error) {
	return []Reply{StartHint()}, ErrUnexpectedInput
}

func (m *Machine) unexpected(_ context.Context, _ session.Session, _ Input) ([]Reply, error) {
	return []Reply{Plain(msgNotUnderstood)}, ErrUnexpectedInput
}

func (m *Machine) amount(_ context.Context, sess session.Session, in Input) ([]Reply, error) {
	amount, err := core.ValidateAmount(strings.TrimSpace(in.Text))
	if err == nil {
		err = amount.Validate()
	}
	if err != nil {
		return []Reply{Markdown(msgInvalidAmount)}, err
	}
	sess.Amount = amount

	if kind, fixed := m.flow.FixedKind(); fixed {
		sess.Kind = kind
		return m.askCategory(sess)
	}

	sess.State = session.AwaitingKind
	m.sessions.Save(sess)
	return []Reply{Markdown(msgAskKind, kindKeyboard()...)}, nil
}

func (m *Machine) kind(_ context.Context, sess session.Session, in Input) ([]Reply, error) {
	kind, err := core.ParseKind(strings.TrimPrefix(in.Text, KindPrefix))
	if err != nil {
		return []Reply{Markdown(msgInvalidKind)}, err
	}
	sess.Kind = kind
	return m.askCategory(sess)
}

func (m *Machine) askCategory(sess session.Session) ([]Reply, error) {
	labels, err := m.catalog.Categories(sess.Kind)
	if err != nil {
		return []Reply{Plain(msgNotUnderstood)}, err
	}
	sess.State = session.AwaitingCategory
	m.sessions.Save(sess)
	return []Reply{Markdown(msgAskCategory, categoryKeyboard(labels)...)}, nil
}

// category stores the label as selected; the keyboard is the only source of
// category payloads.
func (m *Machine) category(ctx context.Context, sess session.Session, in Input) ([]Reply, error) {
	label, ok := strings.CutPrefix(in.Text, CategoryPrefix)
	if !ok || !m.catalog.Contains(sess.Kind, label) {
		return m.unexpected(ctx, sess, in)
	}
	sess.Category = label
	sess.State = session.AwaitingDescription
	m.sessions.Save(sess)
	return []Reply{Markdown(msgAskDescription)}, nil
}

// description completes the transaction. On a failed write the session stays
// in AwaitingDescription so that resending the description retries.
func (m *Machine) description(ctx context.Context, sess session.Session, in Input) ([]Reply, error) {
	sess.Description = in.Text
	saved, err := m.writer.Append(ctx, sess.Transaction(in.Author))
	if err != nil {
		m.sessions.Save(sess)
		if !errors.Is(err, ledger.ErrPersistence) {
			err = fmt.Errorf("%w: %w", ledger.ErrPersistence, err)
		}
		return []Reply{Markdown(msgSaveFailed)}, err
	}

	m.sessions.Clear(in.UserID)
	m.logger.InfoContext(ctx, "Transaction recorded",
		log.NewFields().
			WithUser(in.UserID, in.Author).
			WithTransaction(saved.ID, saved.Amount.String(), string(saved.Kind), saved.Category).
			ToSlice()...)

	return []Reply{Markdown(confirmation(saved)), StartHint()}, nil
}
