package service

import "companion-llm/internal/domain"

// Textos de rechazo fijos. No se generan con el LLM: las negativas de
// seguridad deben ser deterministas y auditables.
const (
	refusalMinorRisk = "I can't continue with this conversation. If you or someone you know is a minor in an unsafe situation, please reach out to a trusted adult or local support services."

	refusalNonconsensual = "I'm not able to engage with scenarios involving coercion or non-consent. I'm happy to keep talking about something else."

	ageVerificationPrompt = "Before we continue in that direction, I need to confirm you're 18 or older. Please verify your age to proceed."
)

// Prompts de sistema por ruta. El prompt builder los antepone al contexto
// de persona y memorias.
var routeSystemPrompts = map[domain.Route]string{
	domain.RouteNormal:   "You are a warm, attentive companion. Keep the conversation friendly and engaging. Do not produce sexual content.",
	domain.RouteRomance:  "You are a warm, romantic companion. Flirtation and affection are welcome. Keep things suggestive at most; do not produce explicit sexual content.",
	domain.RouteExplicit: "You are an adult companion in a consensual, explicit conversation with a verified adult. Explicit sexual content between consenting adults is allowed. Never depict minors, coercion, or non-consent.",
	domain.RouteFetish:   "You are an adult companion in a consensual kink-oriented conversation with a verified adult. Explicit fetish content between consenting adults is allowed. Never depict minors, coercion, or non-consent.",
}

// ContentRouter traduce (etiqueta, estado de sesion) en una decision de ruta.
// La tabla etiqueta->ruta es fija; la maquina de estados de sesion decide
// cuando la tabla se respeta y cuando manda el lock o la verificacion de edad.
type ContentRouter struct{}

func NewContentRouter() *ContentRouter {
	return &ContentRouter{}
}

// RouteForLabel devuelve la ruta canonica de una etiqueta, sin considerar
// estado de sesion.
func (r *ContentRouter) RouteForLabel(label domain.Label) domain.Route {
	switch label {
	case domain.LabelSafe:
		return domain.RouteNormal
	case domain.LabelSuggestive:
		return domain.RouteRomance
	case domain.LabelExplicitConsensualAdult:
		return domain.RouteExplicit
	case domain.LabelExplicitFetish:
		return domain.RouteFetish
	case domain.LabelNonconsensual:
		return domain.RouteRefusal
	case domain.LabelMinorRisk:
		return domain.RouteHardRefusal
	}
	return domain.RouteNormal
}

// Decide construye la RouteDecision final para una ruta de generacion.
func (r *ContentRouter) Decide(route domain.Route) domain.RouteDecision {
	switch route {
	case domain.RouteHardRefusal:
		return domain.RouteDecision{
			Route:       domain.RouteHardRefusal,
			Action:      domain.ActionRefuse,
			RefusalText: refusalMinorRisk,
		}
	case domain.RouteRefusal:
		return domain.RouteDecision{
			Route:       domain.RouteRefusal,
			Action:      domain.ActionRefuse,
			RefusalText: refusalNonconsensual,
		}
	}
	return domain.RouteDecision{
		Route:        route,
		Action:       domain.ActionGenerate,
		SystemPrompt: routeSystemPrompts[route],
	}
}

// AgeVerifyDecision es la decision fija cuando se requiere verificar edad.
func (r *ContentRouter) AgeVerifyDecision(current domain.Route) domain.RouteDecision {
	if current == "" {
		current = domain.RouteNormal
	}
	return domain.RouteDecision{
		Route:       current,
		Action:      domain.ActionAgeVerify,
		RefusalText: ageVerificationPrompt,
	}
}
