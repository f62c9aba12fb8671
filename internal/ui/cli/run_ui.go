package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

func runUI(ctx context.Context, sess *liveSession, first snapshot) error {
	st := sess.current()
	m := initialModel(st.input, sess.trigger).apply(snapshotMsg{st: st, snap: first})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	sess.setPublisher(ctx, func(_ context.Context, st settings, snap snapshot, err error) {
		p.Send(snapshotMsg{st: st, snap: snap, err: err})
	}, nil)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
