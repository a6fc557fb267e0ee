package repository

// WithName filters by the "name" column.
func WithName(name string) Option {
	return WithCondition("name", name)
}

// WithCorrespondenceID filters documents attached to a correspondence.
func WithCorrespondenceID(id int64) Option {
	return WithCondition("correspondence_id", id)
}

// WithCorrespondenceIDIn filters documents attached to any of the given
// correspondence records.
func WithCorrespondenceIDIn(ids []int64) Option {
	return WithConditionIn("correspondence_id", ids)
}

// WithEmbedding keeps only rows that carry a stored embedding.
func WithEmbedding() Option {
	return WithNotNull("embedding")
}

// WithoutEmbedding keeps only rows that have not been embedded yet.
func WithoutEmbedding() Option {
	return WithNull("embedding")
}

// WithStatus filters by the "status" column.
func WithStatus(status string) Option {
	return WithCondition("status", status)
}
