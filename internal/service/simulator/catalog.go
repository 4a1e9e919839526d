package simulator

import "github.com/splax/synthteams/internal/choice"

// Catalog holds the agent titles and training step texts entries are built from.
type Catalog struct {
	agents []choice.Option
	steps  []choice.Option
}

// NewCatalog copies the given options so later mutation by the caller has no effect.
func NewCatalog(agents, steps []choice.Option) Catalog {
	return Catalog{
		agents: append([]choice.Option(nil), agents...),
		steps:  append([]choice.Option(nil), steps...),
	}
}

// Agents returns a copy of the agent options.
func (c Catalog) Agents() []choice.Option {
	return append([]choice.Option(nil), c.agents...)
}

// Steps returns a copy of the step options.
func (c Catalog) Steps() []choice.Option {
	return append([]choice.Option(nil), c.steps...)
}

// DefaultCatalog is the set of roles and training steps shown on the landing page.
func DefaultCatalog() Catalog {
	return NewCatalog(choice.Uniform(
		"Marketing Specialist",
		"Financial Analyst",
		"Sales Development Representative",
		"Executive Assistant",
		"Research Analyst",
		"Customer Support Agent",
		"Content Strategist",
		"Data Scientist",
		"HR Coordinator",
		"Business Development Manager",
		"Legal Assistant",
		"Operations Manager",
		"Product Manager",
		"Social Media Strategist",
		"Market Research Analyst",
	), choice.Uniform(
		"Initializing neural networks...",
		"Loading industry-specific data...",
		"Optimizing decision matrices...",
		"Calibrating response patterns...",
		"Fine-tuning communication protocols...",
		"Analyzing historical performance...",
		"Integrating best practices...",
		"Validating output quality...",
		"Running simulation tests...",
		"Synchronizing with existing systems...",
		"Training on domain knowledge...",
		"Adapting to company policies...",
		"Learning from past interactions...",
		"Optimizing workflow patterns...",
		"Calibrating decision thresholds...",
	))
}
