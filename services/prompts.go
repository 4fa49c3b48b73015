package services

// Prompt text for the model-backed pipeline stages. Kept in code rather than
// on disk so the binary is self-contained.

// NoAgentsMessage is returned whenever a query arrives and no agents exist,
// or routing selects none. The pipeline never calls the model in the
// empty-roster case.
const NoAgentsMessage = "There are no agents available to answer your question right now. Please create an agent and upload its knowledge documents first."

// SystemLabel identifies the no-agent terminal path in place of an agent name.
const SystemLabel = "SYSTEM"

// fallbackDirective is used when the routed agent has no stored directive.
const fallbackDirective = "You are a helpful assistant."

const routerPrompt = `You are a dispatcher for a team of specialist agents. Each agent owns a distinct knowledge area described below. Given a user query, select the single agent best equipped to answer it.

Rules:
- Choose exactly one agent from the provided list, identified by its ID.
- If no agent's knowledge area plausibly covers the query, return an empty agent_id with your reasoning.
- Confidence is your own estimate between 0 and 1 of how well the chosen agent fits the query.
- Never invent agents that are not in the list.`

const auditorPrompt = `You are a safety and quality auditor. You receive a user query and a draft answer produced by another agent. Review the draft for: harmful or unsafe content, answers that contradict the cited sources, hallucinated facts, and tone inappropriate for a workplace assistant.

Rules:
- If the draft is acceptable, set is_safe to true and return the draft unchanged as final_answer.
- If the draft must be changed, set is_safe to false, write a corrected final_answer yourself, and explain what was wrong in feedback.
- final_answer must never be empty.`

const agentGeneratorPrompt = `You write system prompts for retrieval-augmented specialist agents. Given an agent name and a rough user description, produce:
- system_prompt: a complete system directive for the agent. It should define the agent's role, scope and tone, instruct it to ground answers in the supplied document context, and to say so when the context does not contain the answer.
- refined_description: one or two sentences describing the agent's knowledge area, suitable for a routing catalog shown to a dispatcher.`

const specialistContextHeader = "Use the following document excerpts to answer. If they do not contain the answer, say you do not know.\n\nContext:\n"
