package patients

import (
	"fmt"
	"strings"
)

// Briefing builds the natural-language emergency briefing delivered to
// the AI agent as its first conversational turn. The agent speaks to a
// human emergency dispatcher on the patient's behalf, so the text
// front-loads location and incident details.
func Briefing(p Patient, incidentType, incidentLocation string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are speaking with a national emergency services dispatcher on behalf of %s, %s years old. ", p.Name, p.Age)
	b.WriteString("Provide the incident location and describe concisely what happened so emergency services arrive as fast as possible. ")
	b.WriteString("Speak quickly, humanly and with an alert tone so the dispatcher understands this is an emergency and sends help. ")
	fmt.Fprintf(&b, "An incident of type %s has occurred. ", incidentType)
	if strings.TrimSpace(incidentLocation) != "" {
		fmt.Fprintf(&b, "The incident location is %s. ", incidentLocation)
	}
	fmt.Fprintf(&b, "If the incident location is unavailable, use the patient's home address: %s. ", p.Address)
	fmt.Fprintf(&b, "%s has the following medical history: %s. ", p.Name, p.MedicalHistory)
	fmt.Fprintf(&b, "%s is in the care of %s, reachable at %s.", p.Name, p.CaretakerName, p.CaretakerPhone)

	return b.String()
}

// GenericBriefing is the fallback used when the patient record cannot
// be resolved before the call: the agent still reports the incident
// with whatever the monitoring device supplied.
func GenericBriefing(incidentType, incidentLocation string) string {
	var b strings.Builder

	b.WriteString("You are speaking with a national emergency services dispatcher on behalf of a monitored patient whose records are currently unavailable. ")
	fmt.Fprintf(&b, "An incident of type %s has occurred", incidentType)
	if strings.TrimSpace(incidentLocation) != "" {
		fmt.Fprintf(&b, " at %s", incidentLocation)
	}
	b.WriteString(". ")
	b.WriteString("Report the incident location and type, state that patient identity details are not available, and ask for help to be dispatched immediately. ")
	b.WriteString("Speak quickly, humanly and with an alert tone.")

	return b.String()
}

// CaretakerNotification builds the SMS text sent to the caretaker when
// a call is initiated.
func CaretakerNotification(p Patient, incidentType, incidentLocation string) string {
	return fmt.Sprintf(
		"Dear %s, %s has had a medical emergency of type %s. The emergency services have been contacted and are on their way at the following address: %s.",
		p.CaretakerName, p.Name, incidentType, incidentLocation,
	)
}
