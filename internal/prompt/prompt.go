// Package prompt holds the prompt templates sent to generators.
package prompt

import (
	"fmt"
	"strings"

	"github.com/richhaase/agentic-site-builder/internal/domain"
)

// Persona frames every generation request.
const Persona = `You are a senior full-stack developer and UX designer working as a one-person web agency.
You write production-ready Next.js (App Router) code in TypeScript with Tailwind CSS.
Your markup is semantic HTML5, responsive, and meets WCAG 2.1 AA.`

// SyntaxChecklist is shared by the syntax critic and the targeted fixer.
const SyntaxChecklist = `CRITICAL SYNTAX CHECKLIST:
1. Imports: every used component or function is imported correctly
2. TypeScript: interfaces, prop types and annotations are valid
3. JSX: every opening tag has a matching closing tag
4. Brackets: every {} [] () is balanced
5. Punctuation: no missing commas or semicolons in objects and arrays
6. Quotes: apostrophes in JSX text are escaped as &apos;
7. Unused variables: remove them or prefix with an underscore
8. Client directive: add 'use client' when the file uses hooks or event handlers`

// ComponentGuidelines constrains generated React components.
const ComponentGuidelines = `TypeScript and React rules:
- Never produce syntax errors. Balance every bracket, parenthesis, quote and JSX tag.
- Escape apostrophes in JSX text: <p>Don&apos;t worry</p>
- Never declare empty interfaces. Give props at least one property or type them inline.
- Only import what you use.
- Never use the any type and never annotate return types as JSX.Element.
- Use Tailwind CSS for all styling.
- Only use these lucide-react icons: Menu, X, ChevronDown, Mail, Phone, MapPin, Facebook, Twitter, Linkedin, Instagram, ArrowRight, Check, Star, Users, Truck, Bot, Cpu, Zap.
- Use <Link href="..."> for internal navigation and <Image ... /> with width, height and alt for images.
- Add 'use client' at the top only when hooks are used.`

// CodeOnly ends every code request.
const CodeOnly = "Output only the complete file inside a single ```tsx code block. No explanations."

// BlueprintSchema is the canonical blueprint shape shown to the generator.
const BlueprintSchema = `{
  "client_name": "string",
  "design_system": {
    "primary_color": "HSL triple, e.g. 222.2 47.4% 11.2%",
    "secondary_color": "HSL triple",
    "font_family": "string"
  },
  "features": ["string"],
  "pages": [
    {
      "name": "string",
      "path": "/url-path",
      "sections": [
        {
          "name": "string",
          "components": [
            {"componentName": "string", "type": "string", "props": {}}
          ]
        }
      ]
    }
  ]
}`

// Blueprint asks for the site blueprint derived from a brief.
func Blueprint(brief, company string) string {
	target := "the company mentioned in the brief"
	if company != "" {
		target = "the company: " + company
	}
	return fmt.Sprintf(`You are a website architect. Analyze the client brief and produce a complete JSON site blueprint.
Fill in the template below. Do not add fields, rename keys or change the nesting.

Every component MUST have a non-empty descriptive "componentName", for example:
{"componentName": "Hero Section", "type": "Hero", "props": {}}

--- CLIENT BRIEF ---
%s
--- END BRIEF ---

Generate the blueprint for %s using exactly this structure:
%s

Respond with the raw JSON only.`, brief, target, BlueprintSchema)
}

// Component asks for one reusable component. The blueprint travels as request context.
func Component(name, clientName string) string {
	return fmt.Sprintf(`%s

%s

Create the code for one reusable React component.

Component name: %s
Client: %s
The full site blueprint is attached as context for props and copy.

The file must default-export a component named %s and compile without errors.
%s`, Persona, ComponentGuidelines, name, clientName, domain.ComponentFileName(name), CodeOnly)
}

// Layout asks for app/layout.tsx.
func Layout(fontFamily string) string {
	return fmt.Sprintf(`%s

Generate the root layout file app/layout.tsx for a Next.js App Router project.

Requirements:
1. Never use the any type. Type children as React.ReactNode with the signature
   export default function RootLayout({ children }: { children: React.ReactNode })
2. Render Header right after <body> and Footer right before </body>.
3. Import components with the @/ alias (import Header from '@/components/Header';).
4. Import the stylesheet as import './globals.css';
5. Use the font '%s'.
%s`, Persona, fontFamily, CodeOnly)
}

// Header asks for components/Header.tsx.
func Header(clientName string, pages []string) string {
	return fmt.Sprintf(`%s

Generate a Header.tsx component for a Next.js project.

Requirements:
1. Start with 'use client' because the mobile menu uses useState.
2. Display the client name "%s".
3. Link to these pages with <Link>: %s.
4. Implement a mobile menu toggle with a hamburger <button>. Only the button has the onClick handler.
5. Use Tailwind CSS and lucide-react icons.
%s`, Persona, clientName, quoteList(pages), CodeOnly)
}

// Footer asks for components/Footer.tsx.
func Footer(clientName string, pages []string, year int) string {
	return fmt.Sprintf(`%s

Generate a Footer.tsx component for a Next.js project.

Requirements:
1. Never use the any type and never declare empty interfaces.
2. Show the copyright notice "© %d %s".
3. Link to these pages with <Link>: %s.
4. Use Tailwind CSS.
%s`, Persona, year, clientName, quoteList(pages), CodeOnly)
}

// Placeholder asks for components/Placeholder.tsx.
func Placeholder() string {
	return fmt.Sprintf(`%s

Generate a Placeholder.tsx React component.

Requirements:
1. Declare interface PlaceholderProps { componentName: string; }
2. Use the signature export default function Placeholder({ componentName }: PlaceholderProps)
3. Use a distinct warning style (yellow or orange background, border and text).
4. Display a friendly message saying the component named componentName failed to load.
%s`, Persona, CodeOnly)
}

// DynamicPage asks for the catch-all route app/[...slug]/page.tsx.
func DynamicPage(available []string) string {
	return fmt.Sprintf(`%s

Create the dynamic page component app/[...slug]/page.tsx.

Type the blueprint data with these interfaces:
interface Component { name: string; type?: string; props?: Record<string, unknown>; }
interface Section { name: string; components: Component[]; }
interface Page { name: string; path: string; sections: Section[]; }

Requirements:
1. Use this signature:
   interface PageProps { params: { slug?: string[] } }
   export default function DynamicPage({ params }: PageProps)
2. Never use the any type. Use unknown for dynamic values. Remove unused variables.
3. Escape characters only inside JSX text.
4. Available components: %s
   Import them as import Name from '@/components/Name';
5. Any component not in the list renders as <Placeholder key={index} componentName={component.name} />
   imported from '@/components/Placeholder'. Never spread component.props onto Placeholder.
6. Load the blueprint with import blueprint from '@/blueprint.json';
   Find the page whose path matches the slug. An empty slug selects the page with path "/".
   Render a "404 Not Found" message when nothing matches.
7. Map sections and components, choosing the component with a switch on component.name.
The site blueprint is attached as context.
%s`, Persona, quoteList(available), CodeOnly)
}

func quoteList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}
