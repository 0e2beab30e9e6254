package scheduling

// transitions is the closed set of allowed status changes. Reschedule is not a
// plain status change and goes through Service.Reschedule instead. Cancellation
// is reachable from every non-terminal state, in_progress included.
var transitions = map[Status][]Status{
	StatusScheduled:   {StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusRescheduled: {StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusInProgress:  {StatusCompleted, StatusCancelled},
}

func transitionAllowed(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// actorMayTransition applies the role gate for a status change. Patients may
// only cancel, and only their own appointment; staff and admin may perform any
// transition in the table.
func actorMayTransition(actor Actor, appt *Appointment, to Status) bool {
	switch actor.Role {
	case RoleStaff, RoleAdmin:
		return true
	case RolePatient:
		return to == StatusCancelled && actor.UserID == appt.PatientID
	}
	return false
}

// actorMayReschedule mirrors the cancel gate: patients may move their own
// appointment, staff and admin may move any.
func actorMayReschedule(actor Actor, appt *Appointment) bool {
	switch actor.Role {
	case RoleStaff, RoleAdmin:
		return true
	case RolePatient:
		return actor.UserID == appt.PatientID
	}
	return false
}

// reschedulable statuses. An in-progress visit cannot be moved.
func canReschedule(from Status) bool {
	return from == StatusScheduled || from == StatusRescheduled
}
