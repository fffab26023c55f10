package reducer

// Stage indices in pipeline order. The active-unit derivation scans
// collection-population flags in this order and is recomputed from
// scratch on every event: any event can change which sentence is now
// furthest behind.
const (
	stageSentences = iota
	stageSelected
	stageDisambiguated
	stagePotentialClaims
	stageValidatedClaims
	stageVerdicts
	numStages
)

// ActiveSentenceID returns the id of the sentence currently believed to
// be mid-processing, or -1 when there is no active unit. Only
// meaningful while the run is still loading.
func (s *State) ActiveSentenceID() int {
	if !s.Loading {
		return -1
	}

	populated := [numStages]bool{
		len(s.Sentences) > 0,
		len(s.Selected) > 0,
		len(s.Disambiguated) > 0,
		len(s.PotentialClaims) > 0,
		len(s.ValidatedClaims) > 0,
		len(s.Verdicts) > 0,
	}

	firstEmpty := -1
	for i, ok := range populated {
		if !ok {
			firstEmpty = i
			break
		}
	}
	if firstEmpty == 0 {
		// No sentences yet; nothing can be in progress.
		return -1
	}

	buckets := s.Buckets()

	if firstEmpty == -1 {
		// Every stage has started. The active sentence is the first, in
		// id order, that has moved past selection but has no verdict.
		for _, b := range buckets {
			started := len(b.Selected) > 0 || len(b.Disambiguated) > 0 ||
				len(b.PotentialClaims) > 0 || len(b.ValidatedClaims) > 0
			if started && len(b.Verdicts) == 0 {
				return b.Sentence.ID
			}
		}
		return -1
	}

	// At a specific stage: the active sentence has data at the current
	// stage but none at the next. A sentence that already carries a
	// verdict is done, whatever its intermediate stages look like.
	current := firstEmpty - 1
	for _, b := range buckets {
		if len(b.Verdicts) > 0 {
			continue
		}
		if stageCount(b, current) > 0 && stageCount(b, current+1) == 0 {
			return b.Sentence.ID
		}
	}
	return -1
}

func stageCount(b SentenceBucket, stage int) int {
	switch stage {
	case stageSentences:
		return 1 // the bucket exists, the sentence exists
	case stageSelected:
		return len(b.Selected)
	case stageDisambiguated:
		return len(b.Disambiguated)
	case stagePotentialClaims:
		return len(b.PotentialClaims)
	case stageValidatedClaims:
		return len(b.ValidatedClaims)
	case stageVerdicts:
		return len(b.Verdicts)
	}
	return 0
}

// StageMessage renders a human-readable description of the furthest
// stage the pipeline has reached.
func (s *State) StageMessage() string {
	switch {
	case len(s.Verdicts) > 0:
		return "Finalizing fact check report..."
	case len(s.ValidatedClaims) > 0:
		return "Verifying claims against reliable sources..."
	case len(s.PotentialClaims) > 0:
		return "Validating potential claims..."
	case len(s.Disambiguated) > 0:
		return "Extracting factual claims from content..."
	case len(s.Selected) > 0:
		return "Disambiguating selected content..."
	default:
		return "Analyzing answer sentences..."
	}
}
