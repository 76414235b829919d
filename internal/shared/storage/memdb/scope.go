package memdb

import "recruit-backend/internal/domain"

// JobInCompany returns the job when it belongs to companyID.
func (t *Tables) JobInCompany(companyID, jobID string) (domain.Job, bool) {
	job, ok := t.Jobs[jobID]
	if !ok || job.CompanyID != companyID {
		return domain.Job{}, false
	}
	return job, true
}

// ApplicationInCompany returns the application and its job when the job
// belongs to companyID. The returned application carries CompanyID.
func (t *Tables) ApplicationInCompany(companyID, applicationID string) (domain.Application, domain.Job, bool) {
	app, ok := t.Applications[applicationID]
	if !ok {
		return domain.Application{}, domain.Job{}, false
	}
	job, ok := t.JobInCompany(companyID, app.JobID)
	if !ok {
		return domain.Application{}, domain.Job{}, false
	}
	app.CompanyID = job.CompanyID
	return app, job, true
}

// ApplicationOfCandidate returns the application when candidateID owns it.
func (t *Tables) ApplicationOfCandidate(candidateID, applicationID string) (domain.Application, domain.Job, bool) {
	app, ok := t.Applications[applicationID]
	if !ok || app.CandidateID != candidateID {
		return domain.Application{}, domain.Job{}, false
	}
	job := t.Jobs[app.JobID]
	app.CompanyID = job.CompanyID
	return app, job, true
}

// InterviewInCompany resolves an interview through its application and job.
func (t *Tables) InterviewInCompany(companyID, interviewID string) (domain.Interview, domain.Application, bool) {
	iv, ok := t.Interviews[interviewID]
	if !ok {
		return domain.Interview{}, domain.Application{}, false
	}
	app, _, ok := t.ApplicationInCompany(companyID, iv.ApplicationID)
	if !ok {
		return domain.Interview{}, domain.Application{}, false
	}
	return iv, app, true
}

// OfferInCompany resolves an offer through its application and job.
func (t *Tables) OfferInCompany(companyID, offerID string) (domain.Offer, domain.Application, bool) {
	offer, ok := t.Offers[offerID]
	if !ok {
		return domain.Offer{}, domain.Application{}, false
	}
	app, _, ok := t.ApplicationInCompany(companyID, offer.ApplicationID)
	if !ok {
		return domain.Offer{}, domain.Application{}, false
	}
	return offer, app, true
}

// OfferOfCandidate resolves an offer owned by candidateID.
func (t *Tables) OfferOfCandidate(candidateID, offerID string) (domain.Offer, domain.Application, bool) {
	offer, ok := t.Offers[offerID]
	if !ok {
		return domain.Offer{}, domain.Application{}, false
	}
	app, _, ok := t.ApplicationOfCandidate(candidateID, offer.ApplicationID)
	if !ok {
		return domain.Offer{}, domain.Application{}, false
	}
	return offer, app, true
}

// StatusIn reports whether s is one of states.
func StatusIn[S ~string](s S, states []S) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}
