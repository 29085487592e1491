package ranking

// VictoryRanking ranks guilds by siege victories.
type VictoryRanking struct{ Base }

// NewVictoryRanking creates the guild victory ranking.
func NewVictoryRanking(source SharedSource, opts ...Option) *VictoryRanking {
	return &VictoryRanking{Base: newBase("Castle Siege (Ranking)", "?go=castlesiegeranking", "Vitórias", source, Victories, opts)}
}

// RegistroRanking ranks guild masters by siege victories.
type RegistroRanking struct{ Base }

// NewRegistroRanking creates the guild master victory ranking.
func NewRegistroRanking(source SharedSource, opts ...Option) *RegistroRanking {
	return &RegistroRanking{Base: newBase("Guild Master Registro", "?go=gmregistroranking", "Vitórias", source, Registro, opts)}
}

// DesbuffRanking ranks guild masters by participations in the alliance slots.
type DesbuffRanking struct{ Base }

// NewDesbuffRanking creates the guild master participation ranking.
func NewDesbuffRanking(source SharedSource, opts ...Option) *DesbuffRanking {
	return &DesbuffRanking{Base: newBase("Guild Master Desbuff", "?go=gmdesbuffranking", "Participações", source, Desbuff, opts)}
}

// StreakRanking ranks guilds by their longest run of consecutive victories.
type StreakRanking struct{ Base }

// NewStreakRanking creates the winning streak ranking.
func NewStreakRanking(source SharedSource, opts ...Option) *StreakRanking {
	return &StreakRanking{Base: newBase("Maiores Sequências", "?go=maioressequenciasranking", "Maior Sequência", source, Streaks, opts)}
}

var (
	_ Ranking = (*VictoryRanking)(nil)
	_ Ranking = (*RegistroRanking)(nil)
	_ Ranking = (*DesbuffRanking)(nil)
	_ Ranking = (*StreakRanking)(nil)
)
