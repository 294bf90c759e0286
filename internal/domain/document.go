package domain

// DocumentID identifies a drive item and names the collaboration
// room for it. Rooms exist implicitly: the first join creates one.
type DocumentID string
