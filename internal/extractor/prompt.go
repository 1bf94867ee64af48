package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voxinv/voxinv/internal/items"
)

// The prompts are written in French, like the voice commands they process.

// NameOnlyMessages builds the prompt that extracts bare item names from a
// transcript. The model is told to drop articles and connective words and to
// answer with a JSON array of {id, name} objects only.
func NameOnlyMessages(transcript string) []Message {
	return []Message{
		{
			Role: RoleSystem,
			Content: "Tu es un assistant spécialisé dans l'extraction d'articles à partir de commandes vocales. " +
				"Ton rôle est d'identifier les noms d'articles mentionnés dans la transcription et de les " +
				"retourner sous forme de liste structurée. Ignore les mots de liaison, les articles (le, la, les) " +
				"et tout ce qui n'est pas un nom d'article.",
		},
		{
			Role: RoleUser,
			Content: fmt.Sprintf("Voici la transcription d'une commande vocale pour emprunter des articles: %q. ", transcript) +
				`Extrais les noms des articles mentionnés et retourne-les sous forme de liste JSON avec un ID unique ` +
				`et le nom de chaque article. Format attendu: [{"id": 1, "name": "nom de l'article"}, ...]. ` +
				`Ne retourne que le JSON, sans aucun autre texte.`,
		},
	}
}

// LocationAwareMessages builds the prompt that extracts items together with
// location ids picked from the supplied context of known zones, furniture and
// drawers.
func LocationAwareMessages(transcript string, locations items.LocationsContext) []Message {
	return []Message{
		{
			Role: RoleSystem,
			Content: "Tu es un assistant spécialisé dans l'extraction d'articles et de leurs emplacements " +
				"à partir de commandes vocales. Ton rôle est d'identifier les noms d'articles mentionnés " +
				"dans la transcription et de les associer aux emplacements existants (zone, meuble, tiroir) " +
				"en fonction du contexte fourni. Utilise ton jugement pour faire les meilleures associations " +
				"possibles entre ce qui est dit et les emplacements disponibles.",
		},
		{
			Role: RoleUser,
			Content: fmt.Sprintf("Voici la transcription d'une commande vocale pour ajouter des articles à l'inventaire: %q. ", transcript) +
				fmt.Sprintf("\n\nVoici le contexte des emplacements existants:\n\nZONES:\n%s\n\nMEUBLES:\n%s\n\nTIROIRS/NIVEAUX:\n%s\n\n",
					formatZonesContext(locations.Zones),
					formatFurnitureContext(locations.Furniture),
					formatDrawersContext(locations.Drawers)) +
				"Extrais les noms des articles mentionnés et associe-les aux emplacements existants. " +
				"Retourne le résultat sous forme de liste JSON avec le format suivant:\n" +
				`[{"name": "nom de l'article", "zone_id": id_zone, "furniture_id": id_meuble, "drawer_id": id_tiroir}, ...]` + "\n\n" +
				"Assure-toi que les IDs correspondent bien aux emplacements existants dans le contexte fourni. " +
				"Ne retourne que le JSON, sans aucun autre texte.",
		},
	}
}

// ReconcileMessages builds the batched prompt comparing recognized names with
// the catalog. The model must answer with a single JSON object holding a
// matched_items list, one entry per recognized name.
func ReconcileMessages(recognizedNames []string, catalog []items.CatalogItem) []Message {
	type promptItem struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	dbItems := make([]promptItem, 0, len(catalog))
	for _, ci := range catalog {
		dbItems = append(dbItems, promptItem{ID: ci.ID, Name: ci.Name})
	}

	namesJSON, _ := json.MarshalIndent(recognizedNames, "", "  ")
	dbItemsJSON, _ := json.MarshalIndent(dbItems, "", "  ")

	user := "Vous êtes un assistant IA expert en gestion d'inventaire. Votre tâche est de comparer une liste d'articles dictés par un utilisateur avec une liste d'articles existants dans une base de données. " +
		"Vous devez identifier quels articles dictés correspondent à des articles existants, même en cas de différences mineures comme les pluriels, les fautes de frappe ou des variations de formulation.\n\n" +
		fmt.Sprintf("Voici la liste des articles dictés par l'utilisateur :\n%s\n\n", namesJSON) +
		fmt.Sprintf("Voici la liste des articles conventionnels de la base de données :\n%s\n\n", dbItemsJSON) +
		"Veuillez analyser ces deux listes et retourner un objet JSON. Cet objet doit contenir une seule clé, 'matched_items', qui est une liste de résultats pour CHAQUE article dicté. " +
		"Chaque objet dans la liste doit avoir la structure suivante :\n" +
		"- \"original_name\": Le nom de l'article tel qu'il a été dicté.\n" +
		"- \"is_conventional\": Un booléen (true/false) indiquant s'il correspond à un article conventionnel.\n" +
		"- \"db_id\": L'ID de l'article de la base de données correspondant (null si aucune correspondance).\n" +
		"- \"db_name\": Le nom officiel de l'article de la base de données (null si aucune correspondance).\n\n" +
		"Si un article dicté comme 'Gauffres au sesames' correspond à 'Gaufre au sésame' (ID 12) dans la base de données, le résultat doit être :\n" +
		`{"original_name": "Gauffres au sesames", "is_conventional": true, "db_id": 12, "db_name": "Gaufre au sésame"}` + "\n\n" +
		"Si un article dicté n'a pas de correspondance claire, marquez-le comme non conventionnel. Ne renvoyez que l'objet JSON, sans texte ou explication supplémentaire."

	return []Message{
		{
			Role:    RoleSystem,
			Content: "Vous êtes un assistant IA expert en JSON qui ne répond que par du JSON valide.",
		},
		{Role: RoleUser, Content: user},
	}
}

// InventoryChatMessages builds the prompt answering a free-form question
// about the current inventory.
func InventoryChatMessages(catalog []items.CatalogItem, userQuery string) []Message {
	var context string
	if len(catalog) == 0 {
		context = "L'inventaire est actuellement vide."
	} else {
		parts := []string{
			"Tu es un assistant IA expert en gestion d'inventaire. " +
				"Réponds aux questions de l'utilisateur concernant la liste du matériel fournie ci-dessous. " +
				"Utilise le format Markdown pour structurer tes réponses lorsque c'est pertinent (par exemple, listes à puces, texte en gras, italique). " +
				"Sois clair et concis. Voici l'inventaire actuel :",
		}
		for _, ci := range catalog {
			location := ci.Location
			if location == "" {
				location = "N/A"
			}
			parts = append(parts, fmt.Sprintf("- Nom: %s, Emplacement: %s", ci.Name, location))
		}
		context = strings.Join(parts, "\n")
	}

	return []Message{
		{Role: RoleSystem, Content: context},
		{Role: RoleUser, Content: userQuery},
	}
}

func formatZonesContext(zones []items.Zone) string {
	if len(zones) == 0 {
		return "Aucune zone disponible"
	}
	lines := make([]string, 0, len(zones))
	for _, z := range zones {
		lines = append(lines, fmt.Sprintf("%d: %s", z.ID, z.Name))
	}
	return strings.Join(lines, "\n")
}

func formatFurnitureContext(furniture []items.Furniture) string {
	if len(furniture) == 0 {
		return "Aucun meuble disponible"
	}
	lines := make([]string, 0, len(furniture))
	for _, f := range furniture {
		lines = append(lines, fmt.Sprintf("%d: %s (Zone: %d)", f.ID, f.Name, f.ZoneID))
	}
	return strings.Join(lines, "\n")
}

func formatDrawersContext(drawers []items.Drawer) string {
	if len(drawers) == 0 {
		return "Aucun tiroir disponible"
	}
	lines := make([]string, 0, len(drawers))
	for _, d := range drawers {
		lines = append(lines, fmt.Sprintf("%d: %s (Meuble: %d)", d.ID, d.Name, d.FurnitureID))
	}
	return strings.Join(lines, "\n")
}
