package agents

import "context"

// MediatorAgent steers the internal_dialogue pipeline's persona turn-taking
// and can end the dialogue early once a conclusion emerges.
type MediatorAgent struct{ *Caller }

// MediatorVerdict is the mediator's per-turn decision.
type MediatorVerdict struct {
	Conclude bool   `json:"conclude"`
	Message  string `json:"message"`
}

func (a *MediatorAgent) Steer(ctx context.Context, query, transcriptSoFar string) (MediatorVerdict, error) {
	system := a.prompt(ctx, "mediator_agent", defaultMediatorPrompt)
	user := "query: " + query + "\ntranscript so far:\n" + transcriptSoFar
	var out MediatorVerdict
	if err := a.chatJSON(ctx, system, user, &out); err != nil {
		return MediatorVerdict{}, err
	}
	return out, nil
}

const defaultMediatorPrompt = `You moderate a dialogue between personas discussing how to answer a query. Either prompt the next speaker or, if a conclusion has emerged, end the dialogue. Respond with JSON: {"conclude": true|false, "message": "<your remark, or the final synthesis if concluding>"}.`

// DialoguePersonaAgent is a single participant's turn in internal_dialogue.
type DialoguePersonaAgent struct{ *Caller }

func (a *DialoguePersonaAgent) Speak(ctx context.Context, persona Persona, query, transcriptSoFar string) (string, error) {
	user := "query: " + query + "\ntranscript so far:\n" + transcriptSoFar + "\n\nRespond in character, advancing the discussion."
	return a.chat(ctx, persona.System, user)
}
