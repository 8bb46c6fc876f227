package pokeapi

// NamedRef is a name plus the upstream URL of the referenced resource.
type NamedRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Pokemon is a single entity as served by /pokemon/{idOrName}.
type Pokemon struct {
	ID      int        `json:"id"`
	Name    string     `json:"name"`
	Height  int        `json:"height" doc:"Height in decimetres"`
	Weight  int        `json:"weight" doc:"Weight in hectograms"`
	Types   []TypeSlot `json:"types"`
	Stats   []Stat     `json:"stats"`
	Sprites Sprites    `json:"sprites"`
}

// TypeNames returns the entity's type names in slot order.
func (p *Pokemon) TypeNames() []string {
	names := make([]string, len(p.Types))
	for i, t := range p.Types {
		names[i] = t.Name
	}
	return names
}

// TypeSlot is one of an entity's types.
type TypeSlot struct {
	Slot int    `json:"slot"`
	Name string `json:"name"`
}

// Stat is one base stat.
type Stat struct {
	Name     string `json:"name"`
	BaseStat int    `json:"base_stat"`
	Effort   int    `json:"effort"`
}

// Sprites holds image URLs. Missing images are empty strings.
type Sprites struct {
	FrontDefault   string `json:"front_default,omitempty"`
	FrontShiny     string `json:"front_shiny,omitempty"`
	BackDefault    string `json:"back_default,omitempty"`
	BackShiny      string `json:"back_shiny,omitempty"`
	ArtworkDefault string `json:"artwork_default,omitempty"`
	ArtworkShiny   string `json:"artwork_shiny,omitempty"`
}

// Image returns the best available picture: artwork, then front sprite.
func (s Sprites) Image() string {
	if s.ArtworkDefault != "" {
		return s.ArtworkDefault
	}
	return s.FrontDefault
}

// ListItem is one entry of a paginated list.
type ListItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ListPage is one page of /pokemon.
type ListPage struct {
	Count      int        `json:"count"`
	Items      []ListItem `json:"items"`
	NextOffset *int       `json:"next_offset,omitempty"`
	PrevOffset *int       `json:"prev_offset,omitempty"`
}

// DamageRelations lists, per direction, the types a type interacts with.
type DamageRelations struct {
	DoubleDamageFrom []string `json:"double_damage_from"`
	DoubleDamageTo   []string `json:"double_damage_to"`
	HalfDamageFrom   []string `json:"half_damage_from"`
	HalfDamageTo     []string `json:"half_damage_to"`
	NoDamageFrom     []string `json:"no_damage_from"`
	NoDamageTo       []string `json:"no_damage_to"`
}

// TypeMember is an entity that has a type in a given slot.
type TypeMember struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slot int    `json:"slot"`
}

// TypeInfo is a single elemental type as served by /type/{name}.
type TypeInfo struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	DamageRelations DamageRelations `json:"damage_relations"`
	Members         []TypeMember    `json:"members"`
}

// Species links an entity to its evolution chain.
type Species struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	EvolutionChainURL string `json:"evolution_chain_url,omitempty"`
	EvolutionChainID  int    `json:"evolution_chain_id,omitempty"`
}

// EvolutionChain is an acyclic lineage tree rooted at the base species.
type EvolutionChain struct {
	ID    int       `json:"id"`
	Chain ChainLink `json:"chain"`
}

// ChainLink is one node of an evolution tree.
type ChainLink struct {
	Species   NamedRef    `json:"species"`
	SpeciesID int         `json:"species_id"`
	EvolvesTo []ChainLink `json:"evolves_to"`
}

// Raw API response types (internal)

type rawNamed struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type rawPokemon struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Height int    `json:"height"`
	Weight int    `json:"weight"`
	Types  []struct {
		Slot int      `json:"slot"`
		Type rawNamed `json:"type"`
	} `json:"types"`
	Stats []struct {
		BaseStat int      `json:"base_stat"`
		Effort   int      `json:"effort"`
		Stat     rawNamed `json:"stat"`
	} `json:"stats"`
	Sprites struct {
		FrontDefault *string `json:"front_default"`
		FrontShiny   *string `json:"front_shiny"`
		BackDefault  *string `json:"back_default"`
		BackShiny    *string `json:"back_shiny"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault *string `json:"front_default"`
				FrontShiny   *string `json:"front_shiny"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
}

type rawList struct {
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []rawNamed `json:"results"`
}

type rawType struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	DamageRelations struct {
		DoubleDamageFrom []rawNamed `json:"double_damage_from"`
		DoubleDamageTo   []rawNamed `json:"double_damage_to"`
		HalfDamageFrom   []rawNamed `json:"half_damage_from"`
		HalfDamageTo     []rawNamed `json:"half_damage_to"`
		NoDamageFrom     []rawNamed `json:"no_damage_from"`
		NoDamageTo       []rawNamed `json:"no_damage_to"`
	} `json:"damage_relations"`
	Pokemon []struct {
		Slot    int      `json:"slot"`
		Pokemon rawNamed `json:"pokemon"`
	} `json:"pokemon"`
}

type rawSpecies struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	EvolutionChain *struct {
		URL string `json:"url"`
	} `json:"evolution_chain"`
}

type rawChainLink struct {
	Species   rawNamed       `json:"species"`
	EvolvesTo []rawChainLink `json:"evolves_to"`
}

type rawEvolutionChain struct {
	ID    int          `json:"id"`
	Chain rawChainLink `json:"chain"`
}
