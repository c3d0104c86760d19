package engine

import (
	"github.com/roach88/harmonizer/internal/ir"
	"github.com/roach88/harmonizer/internal/schema"
)

// linker appends assembled records to the dataset and connects each child
// to its parent through the "<parent>.<parent>_id" property.
type linker struct {
	schema  *schema.Schema
	ds      *ir.HarmonizedDataset
	rc      *RunContext
	studyID any

	// participants maps a participant id to the content hash of the record
	// already emitted for it.
	participants map[string]string
}

func newLinker(s *schema.Schema, ds *ir.HarmonizedDataset, rc *RunContext) *linker {
	return &linker{schema: s, ds: ds, rc: rc, participants: make(map[string]string)}
}

func (l *linker) addStudies(recs []*ir.OutputRecord) {
	for _, r := range recs {
		if l.studyID == nil {
			l.studyID, _ = r.Get(ir.IDProperty(ir.NodeStudy))
		}
	}
	l.ds.Append(ir.NodeStudy, recs...)
}

func (l *linker) addReferenceFiles(recs []*ir.OutputRecord) {
	for _, r := range recs {
		l.link(r, ir.NodeStudy, l.studyID)
	}
	if len(recs) > 0 {
		l.ds.Append(ir.NodeReferenceFile, recs...)
	}
}

// addRecord links and appends everything assembled from one source record.
// Participants go first so observations can reference them.
func (l *linker) addRecord(rec *ir.SourceRecord, nodes []NodeRecords) {
	var participantID any
	for _, nr := range nodes {
		if nr.Node != ir.NodeParticipant {
			continue
		}
		for _, r := range nr.Records {
			l.link(r, ir.NodeStudy, l.studyID)
			id, _ := r.Get(ir.IDProperty(ir.NodeParticipant))
			if participantID == nil {
				participantID = id
			}
			if l.repeatedParticipant(id, r) {
				l.rc.Log.Debug().
					Str("participant_id", ir.Stringify(id)).
					Str("record", rec.Key()).
					Msg("participant already emitted")
				continue
			}
			l.ds.Append(ir.NodeParticipant, r)
		}
	}

	for _, nr := range nodes {
		if nr.Node == ir.NodeParticipant {
			continue
		}
		parent := ir.ParentOf(nr.Node)
		parentID := participantID
		if parent == ir.NodeStudy {
			parentID = l.studyID
		}
		for _, r := range nr.Records {
			l.link(r, parent, parentID)
		}
		if parent == ir.NodeParticipant && ir.IsBlank(participantID) {
			l.rc.Log.Debug().
				Str("node", nr.Node).
				Str("record", rec.Key()).
				Msg("no participant assembled from record, link left blank")
		}
		l.ds.Append(nr.Node, nr.Records...)
	}
}

// repeatedParticipant reports whether a participant with the same id and
// content was emitted before. A same-id record with different content is
// kept so the validator reports the duplicate.
func (l *linker) repeatedParticipant(id any, r *ir.OutputRecord) bool {
	if ir.IsBlank(id) {
		return false
	}
	h, err := ir.RecordHash(r)
	if err != nil {
		return false
	}
	key := ir.Stringify(id)
	prev, seen := l.participants[key]
	if !seen {
		l.participants[key] = h
		return false
	}
	return prev == h
}

// link sets the parent reference of r when the schema declares it and the
// rules left it blank.
func (l *linker) link(r *ir.OutputRecord, parent string, id any) {
	if parent == "" || ir.IsBlank(id) {
		return
	}
	prop := ir.LinkProperty(parent)
	if _, ok := l.schema.PropertyOf(r.Node, prop); !ok {
		return
	}
	if v, ok := r.Get(prop); ok && !ir.IsBlank(v) {
		return
	}
	r.Set(prop, id)
}
