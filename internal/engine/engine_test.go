package engine

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/petrijr/reenact/pkg/api"
)

func TestEngine_RegisterValidatesWorkflow(t *testing.T) {
	eng := NewInMemoryEngine(api.Providers{})

	err := eng.RegisterWorkflow(api.Workflow{Name: "no-steps"})
	require.Error(t, err)

	err = eng.RegisterWorkflow(api.Workflow{
		Name:  "bad-ids",
		Steps: []api.Step{{ID: 2, Action: api.ActionType, Text: "x"}, {ID: 1, Action: api.ActionType, Text: "y"}},
	})
	require.Error(t, err)
}

func TestEngine_RegisterRejectsDuplicates(t *testing.T) {
	eng := NewInMemoryEngine(api.Providers{})
	require.NoError(t, eng.RegisterWorkflow(threeStepWorkflow()))

	err := eng.RegisterWorkflow(threeStepWorkflow())
	require.ErrorContains(t, err, "already registered")
}

func TestEngine_WorkflowsSorted(t *testing.T) {
	eng := NewInMemoryEngine(api.Providers{})
	for _, name := range []string{"zeta", "alpha", "mid"} {
		wf := threeStepWorkflow()
		wf.Name = name
		require.NoError(t, eng.RegisterWorkflow(wf))
	}
	require.Equal(t, []string{"alpha", "mid", "zeta"}, eng.Workflows())
}

func TestEngine_UnknownWorkflow(t *testing.T) {
	eng := NewInMemoryEngine(api.Providers{})

	_, err := eng.Workflow("ghost")
	require.ErrorContains(t, err, "unknown workflow")

	_, err = eng.NewSession("ghost")
	require.Error(t, err)

	_, err = eng.DryRun(context.Background(), "ghost")
	require.Error(t, err)
}

func TestEngine_NewSessionChecksProviders(t *testing.T) {
	// No providers at all: live sessions are impossible, dry runs fine.
	eng := NewInMemoryEngine(api.Providers{})
	require.NoError(t, eng.RegisterWorkflow(threeStepWorkflow()))

	_, err := eng.NewSession("invoice-entry")
	require.ErrorIs(t, err, api.ErrWorkflowRequiresProvider)

	_, err = eng.DryRun(context.Background(), "invoice-entry")
	require.NoError(t, err)
}

func TestEngine_NewSessionChecksConditionProviders(t *testing.T) {
	rig := newTestRig(t, fastConfig())

	// Engine with screen+input only; a text_appears workflow needs the
	// recognizer and must be refused before anything moves.
	eng := NewInMemoryEngine(api.Providers{Screen: rig.screen, Input: rig.input})

	wf := api.Workflow{
		Name: "needs-ocr",
		Steps: []api.Step{
			{
				ID:     1,
				Action: api.ActionType,
				Text:   "x",
				Post: &api.PostCondition{
					Kind:    api.CondTextAppears,
					Text:    "saved",
					Timeout: api.Duration(time.Second),
				},
			},
		},
	}
	require.NoError(t, eng.RegisterWorkflow(wf))

	_, err := eng.NewSession("needs-ocr")
	require.ErrorIs(t, err, api.ErrWorkflowRequiresProvider)
	require.ErrorContains(t, err, "text recognizer")
}

func TestEngine_ArchivesSessionsAndEvents(t *testing.T) {
	rig := newTestRig(t, fastConfig())
	require.NoError(t, rig.eng.RegisterWorkflow(threeStepWorkflow()))

	sum, err := rig.confirmAndRun(t, "invoice-entry")
	require.NoError(t, err)

	got, err := rig.eng.Session(context.Background(), sum.ID)
	require.NoError(t, err)
	require.Equal(t, api.SessionCompleted, got.Status)
	require.Len(t, got.Results, 3)

	listed, err := rig.eng.Sessions(context.Background(), api.SessionFilter{Workflow: "invoice-entry"})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	none, err := rig.eng.Sessions(context.Background(), api.SessionFilter{Status: api.SessionAborted})
	require.NoError(t, err)
	require.Empty(t, none)

	events, err := rig.eng.Events(context.Background(), sum.ID)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	require.Equal(t, api.EventSessionCompleted, events[len(events)-1].Type)

	_, err = rig.eng.Session(context.Background(), "no-such-session")
	require.ErrorContains(t, err, "not found")
}

func TestEngine_SQLiteArchiveSurvivesReopen(t *testing.T) {
	path := t.TempDir() + "/replay.db"
	db, err := sql.Open("sqlite", "file:"+path+"?_journal=WAL")
	require.NoError(t, err)

	rig := newTestRig(t, fastConfig())

	eng, err := NewSQLiteEngine(api.Providers{
		Screen: rig.screen,
		Input:  rig.input,
	}, db)
	require.NoError(t, err)

	wf := api.Workflow{
		Name: "durable",
		Steps: []api.Step{
			{ID: 1, Action: api.ActionClick, Target: api.Target{Absolute: &api.Point{X: 50, Y: 50}}},
			{ID: 2, Action: api.ActionType, Text: "persisted"},
		},
	}
	require.NoError(t, eng.RegisterWorkflow(wf))

	session, err := eng.NewSession("durable")
	require.NoError(t, err)
	_, err = session.Preview(context.Background())
	require.NoError(t, err)
	sum, err := session.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// A fresh engine over the same file sees the archived run.
	db2, err := sql.Open("sqlite", "file:"+path+"?_journal=WAL")
	require.NoError(t, err)
	defer db2.Close()

	eng2, err := NewSQLiteEngine(api.Providers{}, db2)
	require.NoError(t, err)

	got, err := eng2.Session(context.Background(), sum.ID)
	require.NoError(t, err)
	require.Equal(t, api.SessionCompleted, got.Status)
	require.Len(t, got.Results, 2)

	events, err := eng2.Events(context.Background(), sum.ID)
	require.NoError(t, err)
	require.NotEmpty(t, events)
}
